package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"career-advisor-bot/internal/infra/metrics"
)

type Config struct {
	BaseURL        string
	AccountSID     string
	AuthToken      string
	WhatsAppNumber string
	Timeout        time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	client := &Client{cfg: cfg}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client.httpClient = &http.Client{Timeout: timeout}
	if cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://api.twilio.com"
	}
	return client
}

func (c *Client) SetHTTPClient(httpClient *http.Client) {
	if httpClient != nil {
		c.httpClient = httpClient
	}
}

type SendMessageResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

func (c *Client) SendWhatsApp(ctx context.Context, to, body string) (SendMessageResponse, error) {
	if c.httpClient == nil {
		return SendMessageResponse{}, fmt.Errorf("http client is not configured")
	}
	if c.cfg.AccountSID == "" || c.cfg.AuthToken == "" {
		return SendMessageResponse{}, fmt.Errorf("twilio credentials are not configured")
	}
	if to == "" {
		return SendMessageResponse{}, fmt.Errorf("recipient is empty")
	}

	form := url.Values{}
	form.Set("From", WhatsAppAddr(c.cfg.WhatsAppNumber))
	form.Set("To", WhatsAppAddr(to))
	form.Set("Body", body)

	baseURL := strings.TrimRight(c.cfg.BaseURL, "/")
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", baseURL, url.PathEscape(c.cfg.AccountSID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return SendMessageResponse{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	metrics.ObserveNetworkRequest("twilio", "send_message", "whatsapp", start, err)
	if err != nil {
		return SendMessageResponse{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return SendMessageResponse{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Message != "" {
			return SendMessageResponse{}, fmt.Errorf("twilio send failed: %d %s", apiErr.Code, apiErr.Message)
		}
		return SendMessageResponse{}, fmt.Errorf("twilio send failed: %s", strings.TrimSpace(string(data)))
	}

	var parsed SendMessageResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return SendMessageResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return parsed, nil
}

// WhatsAppAddr приводит номер к адресу канала: Twilio ожидает префикс
// "whatsapp:" и во From, и в To.
func WhatsAppAddr(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
