package webhook

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"career-advisor-bot/internal/domain"
	"career-advisor-bot/internal/infra/cache"
)

func postUpdate(t *testing.T, h http.HandlerFunc, body, secret string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/telegram", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-Telegram-Bot-Api-Secret-Token", secret)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

const updateJSON = `{"update_id":42,"message":{"message_id":7,"chat":{"id":100500},"text":"What career suits me?"}}`

func TestTelegramHandleRunsTurn(t *testing.T) {
	turns := &fakeTurns{}
	h := NewTelegram(turns, nil, 0, "", zerolog.Nop())

	rec := postUpdate(t, h.Handle, updateJSON, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if turns.calls != 1 {
		t.Fatalf("turn calls = %d, want 1", turns.calls)
	}
	if turns.msg.Channel != domain.ChannelTelegram {
		t.Fatalf("channel = %q", turns.msg.Channel)
	}
	if turns.msg.Sender != "100500" {
		t.Fatalf("sender = %q, want chat id", turns.msg.Sender)
	}
	if turns.msg.Text != "What career suits me?" {
		t.Fatalf("text = %q", turns.msg.Text)
	}
	if turns.msg.ProviderMsgID != "42" {
		t.Fatalf("provider msg id = %q, want update id", turns.msg.ProviderMsgID)
	}
}

func TestTelegramHandleBadJSON(t *testing.T) {
	turns := &fakeTurns{}
	h := NewTelegram(turns, nil, 0, "", zerolog.Nop())

	if rec := postUpdate(t, h.Handle, "{not json", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if turns.calls != 0 {
		t.Fatalf("turn must not run on bad update")
	}
}

func TestTelegramHandleIgnoresNonMessageUpdate(t *testing.T) {
	turns := &fakeTurns{}
	h := NewTelegram(turns, nil, 0, "", zerolog.Nop())

	rec := postUpdate(t, h.Handle, `{"update_id":43,"edited_message":null}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if turns.calls != 0 {
		t.Fatalf("non-message update must be ignored")
	}
}

func TestTelegramHandleSecretMismatch(t *testing.T) {
	turns := &fakeTurns{}
	h := NewTelegram(turns, nil, 0, "expected", zerolog.Nop())

	if rec := postUpdate(t, h.Handle, updateJSON, "wrong"); rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if turns.calls != 0 {
		t.Fatalf("turn must not run with wrong secret")
	}

	if rec := postUpdate(t, h.Handle, updateJSON, "expected"); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if turns.calls != 1 {
		t.Fatalf("turn calls = %d, want 1", turns.calls)
	}
}

func TestTelegramHandleFailedTurnStillAcked(t *testing.T) {
	turns := &fakeTurns{err: errors.New("delivery down")}
	h := NewTelegram(turns, nil, 0, "", zerolog.Nop())

	if rec := postUpdate(t, h.Handle, updateJSON, ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (Telegram redelivers on non-2xx)", rec.Code)
	}
}

func TestTelegramHandleDeduplicatesRetries(t *testing.T) {
	turns := &fakeTurns{}
	h := NewTelegram(turns, cache.NewMemory(), time.Minute, "", zerolog.Nop())

	postUpdate(t, h.Handle, updateJSON, "")
	postUpdate(t, h.Handle, updateJSON, "")
	if turns.calls != 1 {
		t.Fatalf("turn calls = %d, want 1 (retry deduplicated)", turns.calls)
	}
}
