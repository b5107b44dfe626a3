package payflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// APIClient talks to the public payment endpoints on behalf of a payer.
// It implements AddressResolver and Recorder for one link.
type APIClient struct {
	baseURL    string
	linkID     uuid.UUID
	creatorID  uuid.UUID
	httpClient *http.Client
	log        *zap.Logger
}

func NewAPIClient(baseURL string, linkID uuid.UUID, log *zap.Logger) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		linkID:  linkID,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func (c *APIClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *APIClient) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *APIClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api returned %d: %s", resp.StatusCode, string(body))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return err
	}
	if out == nil || env.Data == nil {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// LinkInfo is the payment page payload the flow needs.
type LinkInfo struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name"`
	Amount   *float64  `json:"amount"`
	Currency string    `json:"currency"`
	Status   string    `json:"status"`
}

// FetchLink loads the public link and remembers the creator for address
// resolution.
func (c *APIClient) FetchLink(ctx context.Context) (*LinkInfo, error) {
	var link LinkInfo
	if err := c.get(ctx, fmt.Sprintf("/api/v1/links/%s/public", c.linkID), &link); err != nil {
		return nil, err
	}
	c.creatorID = link.UserID
	return &link, nil
}

func (c *APIClient) ResolveAddress(ctx context.Context, chainName string) (string, error) {
	if c.creatorID == uuid.Nil {
		return "", fmt.Errorf("link not fetched yet")
	}
	var out struct {
		Address string `json:"address"`
	}
	path := fmt.Sprintf("/api/v1/creators/%s/wallet?chain=%s", c.creatorID, chainName)
	if err := c.get(ctx, path, &out); err != nil {
		return "", err
	}
	return out.Address, nil
}

func (c *APIClient) RecordPayment(ctx context.Context, amount float64, currency, txHash string) error {
	body := map[string]any{
		"amount":   amount,
		"currency": currency,
		"txHash":   txHash,
	}
	return c.post(ctx, fmt.Sprintf("/api/v1/links/%s/payment", c.linkID), body, nil)
}
