package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"career-advisor-bot/internal/domain"
	"career-advisor-bot/internal/infra/cache"
)

type fakeTurns struct {
	calls int
	msg   domain.Message
	err   error
}

func (f *fakeTurns) Handle(_ context.Context, msg domain.Message) error {
	f.calls++
	f.msg = msg
	return f.err
}

func postForm(t *testing.T, h http.HandlerFunc, form url.Values, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "http://bot.example/webhook/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func inboundForm(body string) url.Values {
	form := url.Values{}
	form.Set("From", "whatsapp:+1555")
	form.Set("Body", body)
	form.Set("MessageSid", "SM100")
	return form
}

func TestTwilioHandleRunsTurn(t *testing.T) {
	turns := &fakeTurns{}
	h := NewTwilio(turns, nil, 0, "", false, zerolog.Nop())

	rec := postForm(t, h.Handle, inboundForm("What career suits someone who likes biology?"), nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/xml" {
		t.Fatalf("content type = %q, want text/xml", ct)
	}
	if !strings.Contains(rec.Body.String(), "<Response>") {
		t.Fatalf("expected TwiML body, got %q", rec.Body.String())
	}
	if turns.calls != 1 {
		t.Fatalf("turn calls = %d, want 1", turns.calls)
	}
	if turns.msg.Sender != "+1555" {
		t.Fatalf("sender = %q, want whatsapp: prefix stripped", turns.msg.Sender)
	}
	if turns.msg.Channel != domain.ChannelWhatsApp || turns.msg.ProviderMsgID != "SM100" {
		t.Fatalf("unexpected message: %+v", turns.msg)
	}
}

func TestTwilioHandleMissingSender(t *testing.T) {
	turns := &fakeTurns{}
	h := NewTwilio(turns, nil, 0, "", false, zerolog.Nop())

	form := url.Values{}
	form.Set("Body", "hi")
	rec := postForm(t, h.Handle, form, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if turns.calls != 0 {
		t.Fatalf("turn must not run without sender")
	}
}

func TestTwilioHandleTurnFailure(t *testing.T) {
	turns := &fakeTurns{err: errors.New("delivery down")}
	h := NewTwilio(turns, nil, 0, "", false, zerolog.Nop())

	rec := postForm(t, h.Handle, inboundForm("hello"), nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestTwilioHandleDeduplicatesRetries(t *testing.T) {
	turns := &fakeTurns{}
	h := NewTwilio(turns, cache.NewMemory(), time.Minute, "", false, zerolog.Nop())

	form := inboundForm("hello")
	first := postForm(t, h.Handle, form, nil)
	second := postForm(t, h.Handle, form, nil)

	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("statuses = %d/%d, want 200/200", first.Code, second.Code)
	}
	if turns.calls != 1 {
		t.Fatalf("turn calls = %d, want 1 (retry deduplicated)", turns.calls)
	}
}

func TestTwilioHandleFailedTurnAllowsRetry(t *testing.T) {
	turns := &fakeTurns{err: errors.New("transient")}
	h := NewTwilio(turns, cache.NewMemory(), time.Minute, "", false, zerolog.Nop())

	form := inboundForm("hello")
	if rec := postForm(t, h.Handle, form, nil); rec.Code != http.StatusBadGateway {
		t.Fatalf("first status = %d, want 502", rec.Code)
	}

	turns.err = nil
	if rec := postForm(t, h.Handle, form, nil); rec.Code != http.StatusOK {
		t.Fatalf("retry status = %d, want 200", rec.Code)
	}
	if turns.calls != 2 {
		t.Fatalf("turn calls = %d, want 2 (failed key released)", turns.calls)
	}
}

func signForm(authToken, requestURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	payload := requestURL
	for _, k := range keys {
		payload += k + form.Get(k)
	}
	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestTwilioHandleSignatureValidation(t *testing.T) {
	turns := &fakeTurns{}
	h := NewTwilio(turns, nil, 0, "secret-token", true, zerolog.Nop())

	form := inboundForm("hello")
	signature := signForm("secret-token", "http://bot.example/webhook/whatsapp", form)

	header := http.Header{}
	header.Set("X-Twilio-Signature", signature)
	if rec := postForm(t, h.Handle, form, header); rec.Code != http.StatusOK {
		t.Fatalf("signed request status = %d, want 200", rec.Code)
	}
	if turns.calls != 1 {
		t.Fatalf("turn calls = %d, want 1", turns.calls)
	}

	tampered := inboundForm("hello, attacker edition")
	if rec := postForm(t, h.Handle, tampered, header); rec.Code != http.StatusForbidden {
		t.Fatalf("tampered request status = %d, want 403", rec.Code)
	}
	if turns.calls != 1 {
		t.Fatalf("tampered request must not reach the turn handler")
	}
}
