// Package lark is a small SDK-free adapter for the chat platform open
// API. Only the surface this service needs is implemented: tenant token
// acquisition and text message delivery by chat ID.
package lark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"cardrelay/pkg/logger"
)

// DefaultBaseURL is the open-platform API host.
const DefaultBaseURL = "https://open.feishu.cn"

// Messenger sends messages into the chat platform. It is the injection
// point for tests and for alternative transports.
type Messenger interface {
	SendText(ctx context.Context, chatID, content string) error
}

// Client is the HTTP Messenger implementation. It caches the tenant
// access token until shortly before expiry.
type Client struct {
	appID     string
	appSecret string
	baseURL   string
	http      *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient constructs a platform client. baseURL may be empty to use
// the default host.
func NewClient(appID, appSecret, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		appID:     appID,
		appSecret: appSecret,
		baseURL:   baseURL,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

type tokenResponse struct {
	Code              int    `json:"code"`
	Msg               string `json:"msg"`
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int    `json:"expire"`
}

// accessToken returns a valid tenant token, refreshing it when the
// cached one is within a minute of expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Until(c.tokenExpiry) > time.Minute {
		return c.token, nil
	}

	body, _ := json.Marshal(map[string]string{
		"app_id":     c.appID,
		"app_secret": c.appSecret,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/open-apis/auth/v3/tenant_access_token/internal", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("tenant token request failed: %w", err)
	}
	defer res.Body.Close()

	var tr tokenResponse
	if err := json.NewDecoder(res.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("tenant token decode failed: %w", err)
	}
	if tr.Code != 0 {
		return "", fmt.Errorf("tenant token rejected: code=%d msg=%s", tr.Code, tr.Msg)
	}
	c.token = tr.TenantAccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tr.Expire) * time.Second)
	return c.token, nil
}

// SendText creates a text message in the chat identified by chatID.
// content must be the JSON content payload (see TextContent).
func (c *Client) SendText(ctx context.Context, chatID, content string) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	body, _ := json.Marshal(map[string]string{
		"receive_id": chatID,
		"msg_type":   "text",
		"content":    content,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/open-apis/im/v1/messages?receive_id_type=chat_id", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send message request failed: %w", err)
	}
	defer res.Body.Close()

	var out struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return fmt.Errorf("send message decode failed: %w", err)
	}
	if out.Code != 0 {
		return fmt.Errorf("send message rejected: code=%d msg=%s", out.Code, out.Msg)
	}
	logger.Debug("message_sent", "chat_id", chatID)
	return nil
}
