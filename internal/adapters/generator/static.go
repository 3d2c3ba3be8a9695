package generator

import (
	"context"
	"strings"
)

const defaultStaticReply = "Think about the subjects you enjoy most and look for careers that use them every day. I can suggest concrete paths once my advisor brain is connected."

// Static реализует domain.Generator фиксированным текстом. Используется
// при запуске без ключа OpenAI.
type Static struct {
	reply string
}

// NewStatic создаёт заглушку генератора.
func NewStatic(reply string) *Static {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = defaultStaticReply
	}
	return &Static{reply: reply}
}

// Generate возвращает фиксированный ответ.
func (s *Static) Generate(_ context.Context, _ string) (string, error) {
	return s.reply, nil
}
