package sheets

import (
	"bytes"
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
	BaseURL       string
	SpreadsheetID string
	Range         string
	AccessToken   string
	Timeout       time.Duration
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
		client.cfg.BaseURL = "https://sheets.googleapis.com"
	}
	if cfg.Range == "" {
		client.cfg.Range = "Feedback!A:C"
	}
	return client
}

func (c *Client) SetHTTPClient(httpClient *http.Client) {
	if httpClient != nil {
		c.httpClient = httpClient
	}
}

func (c *Client) AppendRow(ctx context.Context, row []string) error {
	if c.httpClient == nil {
		return fmt.Errorf("http client is not configured")
	}
	if c.cfg.SpreadsheetID == "" {
		return fmt.Errorf("spreadsheet id is not configured")
	}
	if c.cfg.AccessToken == "" {
		return fmt.Errorf("access token is not configured")
	}

	body, err := json.Marshal(struct {
		Values [][]string `json:"values"`
	}{Values: [][]string{row}})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	baseURL := strings.TrimRight(c.cfg.BaseURL, "/")
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s:append?valueInputOption=RAW&insertDataOption=INSERT_ROWS",
		baseURL, url.PathEscape(c.cfg.SpreadsheetID), url.PathEscape(c.cfg.Range))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	metrics.ObserveNetworkRequest("sheets", "values_append", "feedback", start, err)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
				Status  string `json:"status"`
			} `json:"error"`
		}
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("sheets append failed: %s %s", apiErr.Error.Status, apiErr.Error.Message)
		}
		return fmt.Errorf("sheets append failed: %s", strings.TrimSpace(string(data)))
	}
	return nil
}
