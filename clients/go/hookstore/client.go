// Package hookstore provides a client for the hookstore webhook service.
package hookstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/eldtechnologies/hookstore/internal/crypto"
)

// SignatureHeader carries the body signature.
const SignatureHeader = crypto.SignatureHeader

// Client is a hookstore API client.
type Client struct {
	BaseURL    string
	Secret     []byte
	HTTPClient *http.Client
}

// NewClient creates a new client. secret may be nil for read-only use.
func NewClient(baseURL string, secret []byte) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	return &Client{
		BaseURL:    baseURL,
		Secret:     secret,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Message is a webhook message as sent and listed.
type Message struct {
	MessageID string  `json:"message_id"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	TS        string  `json:"ts"`
	Text      *string `json:"text,omitempty"`
}

// Page is one page of GET /messages.
type Page struct {
	Data   []Message `json:"data"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

// SenderCount is one entry of Stats.MessagesPerSender.
type SenderCount struct {
	From  string `json:"from"`
	Count int64  `json:"count"`
}

// Stats is the GET /stats response.
type Stats struct {
	TotalMessages     int64         `json:"total_messages"`
	SendersCount      int64         `json:"senders_count"`
	MessagesPerSender []SenderCount `json:"messages_per_sender"`
	FirstMessageTS    *string       `json:"first_message_ts"`
	LastMessageTS     *string       `json:"last_message_ts"`
}

// ListOptions selects a page of messages. Zero values are omitted.
type ListOptions struct {
	Limit  int
	Offset int
	From   string
	Since  string
	Q      string
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hookstore: HTTP %d: %s", e.StatusCode, e.Body)
}

// Sign returns the X-Signature value for body.
func Sign(body, secret []byte) string {
	return crypto.SignHMAC(body, secret)
}

// Send marshals msg and posts it. Duplicates succeed like new messages.
func (c *Client) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.SendRaw(ctx, body)
}

// SendRaw posts body exactly as given, signed with the client secret.
func (c *Client) SendRaw(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/webhook", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(body, c.Secret))

	return c.do(req, nil)
}

// Messages fetches one page of messages.
func (c *Client) Messages(ctx context.Context, opts ListOptions) (*Page, error) {
	q := url.Values{}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	if opts.From != "" {
		q.Set("from", opts.From)
	}
	if opts.Since != "" {
		q.Set("since", opts.Since)
	}
	if opts.Q != "" {
		q.Set("q", opts.Q)
	}

	u := c.BaseURL + "/messages"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	var page Page
	if err := c.do(req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Stats fetches aggregate statistics.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/stats", nil)
	if err != nil {
		return nil, err
	}

	var st Stats
	if err := c.do(req, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Ready reports whether the service passes its readiness probe.
func (c *Client) Ready(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health/ready", nil)
	if err != nil {
		return false, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
