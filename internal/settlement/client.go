package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Client talks to the custodial signer over HTTP. A transfer request is
// submitted with the caller's idempotency key, then its status is polled
// with a bounded budget; the outcome always resolves to success or failure
// before returning.
type Client struct {
	baseURL      string
	apiKey       string
	http         *http.Client
	pollAttempts int
	pollInterval time.Duration
}

type ClientConfig struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	PollAttempts int
	PollInterval time.Duration
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 10
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	return &Client{
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		http:         &http.Client{Timeout: cfg.Timeout},
		pollAttempts: cfg.PollAttempts,
		pollInterval: cfg.PollInterval,
	}
}

type transferRequest struct {
	Destination    string `json:"destination"`
	AmountWei      string `json:"amount_wei"`
	IdempotencyKey string `json:"idempotency_key"`
}

type transferResponse struct {
	TransferID string `json:"transfer_id"`
	Status     string `json:"status"`
	Reason     string `json:"reason"`
}

func (c *Client) Settle(ctx context.Context, destination string, amountWei *big.Int, idempotencyKey string) (*Result, error) {
	body, err := json.Marshal(transferRequest{
		Destination:    destination,
		AmountWei:      amountWei.String(),
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/transfers", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("idempotency_key", idempotencyKey).Msg("signer submit failed")
		return nil, ErrTransferFailed
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Warn().Int("status", resp.StatusCode).Str("idempotency_key", idempotencyKey).Msg("signer rejected transfer")
		return nil, ErrTransferFailed
	}
	var tr transferResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, ErrTransferFailed
	}
	switch tr.Status {
	case StatusConfirmed:
		return &Result{ExternalTxID: tr.TransferID}, nil
	case StatusFailed:
		log.Warn().Str("idempotency_key", idempotencyKey).Str("reason", tr.Reason).Msg("transfer failed")
		return nil, ErrTransferFailed
	}
	return c.poll(ctx, idempotencyKey)
}

func (c *Client) poll(ctx context.Context, idempotencyKey string) (*Result, error) {
	for attempt := 0; attempt < c.pollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ErrTransferFailed
		case <-time.After(c.pollInterval):
		}
		status, txID, err := c.status(ctx, idempotencyKey)
		if err != nil {
			continue
		}
		switch status {
		case StatusConfirmed:
			return &Result{ExternalTxID: txID}, nil
		case StatusFailed:
			return nil, ErrTransferFailed
		}
	}
	log.Warn().Str("idempotency_key", idempotencyKey).Int("attempts", c.pollAttempts).
		Msg("transfer unconfirmed after poll budget, treating as failed")
	return nil, ErrTransferFailed
}

func (c *Client) Status(ctx context.Context, idempotencyKey string) (string, error) {
	status, _, err := c.status(ctx, idempotencyKey)
	return status, err
}

func (c *Client) status(ctx context.Context, idempotencyKey string) (string, string, error) {
	url := fmt.Sprintf("%s/v1/transfers/%s", c.baseURL, idempotencyKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return StatusUnknown, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.http.Do(req)
	if err != nil {
		return StatusUnknown, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return StatusUnknown, "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return StatusUnknown, "", fmt.Errorf("signer status returned %d", resp.StatusCode)
	}
	var tr transferResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return StatusUnknown, "", err
	}
	return tr.Status, tr.TransferID, nil
}
