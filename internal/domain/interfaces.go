package domain

import (
	"context"
	"time"
)

// Generator строит текст ответа на входящее сообщение пользователя.
type Generator interface {
	Generate(ctx context.Context, text string) (string, error)
}

// Deliverer доставляет ответ пользователю в его канал. Реализация может
// разбить длинный текст на несколько вызовов API платформы, но на одно
// обращение приходится ровно один вызов Deliver.
type Deliverer interface {
	Deliver(ctx context.Context, to, text string) error
}

// FeedbackStore добавляет записи отзывов в настроенный бэкенд.
type FeedbackStore interface {
	Append(ctx context.Context, rec FeedbackRecord) error
}

// Cache выполняет fn не более одного раза на ключ в течение ttl и
// возвращает признак выполнения. Ошибка fn освобождает ключ, чтобы
// повторная попытка могла выполниться.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) (bool, error)
}
