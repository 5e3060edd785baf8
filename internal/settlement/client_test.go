package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(baseURL string, pollAttempts int) *Client {
	return NewClient(ClientConfig{
		BaseURL:      baseURL,
		APIKey:       "test-key",
		Timeout:      2 * time.Second,
		PollAttempts: pollAttempts,
		PollInterval: time.Millisecond,
	})
}

func TestSettleConfirmedImmediately(t *testing.T) {
	var gotReq transferRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/transfers" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header: %q", got)
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Error("missing request id header")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(transferResponse{TransferID: "0xabc", Status: StatusConfirmed})
	}))
	defer srv.Close()

	c := testClient(srv.URL, 3)
	res, err := c.Settle(context.Background(), "0xdest", big.NewInt(123456), "key-1")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if res.ExternalTxID != "0xabc" {
		t.Fatalf("external tx id: %q", res.ExternalTxID)
	}
	if gotReq.IdempotencyKey != "key-1" || gotReq.Destination != "0xdest" || gotReq.AmountWei != "123456" {
		t.Fatalf("request body: %+v", gotReq)
	}
}

func TestSettleReportedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(transferResponse{Status: StatusFailed, Reason: "insufficient signer balance"})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 3).Settle(context.Background(), "0xdest", big.NewInt(1), "key-1")
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected transfer_failed, got %v", err)
	}
}

func TestSettlePendingThenConfirmed(t *testing.T) {
	var statusCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(transferResponse{Status: StatusPending})
			return
		}
		if !strings.HasPrefix(r.URL.Path, "/v1/transfers/") {
			t.Errorf("unexpected status path: %s", r.URL.Path)
		}
		if statusCalls.Add(1) < 3 {
			json.NewEncoder(w).Encode(transferResponse{Status: StatusPending})
			return
		}
		json.NewEncoder(w).Encode(transferResponse{TransferID: "0xdef", Status: StatusConfirmed})
	}))
	defer srv.Close()

	res, err := testClient(srv.URL, 10).Settle(context.Background(), "0xdest", big.NewInt(1), "key-2")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if res.ExternalTxID != "0xdef" {
		t.Fatalf("external tx id: %q", res.ExternalTxID)
	}
	if got := statusCalls.Load(); got != 3 {
		t.Fatalf("expected 3 status polls, got %d", got)
	}
}

func TestSettlePollBudgetExhausted(t *testing.T) {
	var statusCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			statusCalls.Add(1)
		}
		json.NewEncoder(w).Encode(transferResponse{Status: StatusPending})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 4).Settle(context.Background(), "0xdest", big.NewInt(1), "key-3")
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("unconfirmed transfer must resolve to failure, got %v", err)
	}
	if got := statusCalls.Load(); got != 4 {
		t.Fatalf("expected 4 status polls, got %d", got)
	}
}

func TestSettleFailedDuringPoll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(transferResponse{Status: StatusPending})
			return
		}
		json.NewEncoder(w).Encode(transferResponse{Status: StatusFailed, Reason: "reverted on chain"})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 10).Settle(context.Background(), "0xdest", big.NewInt(1), "key-4")
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected transfer_failed, got %v", err)
	}
}

func TestSettleRejectedSubmit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad_request"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 3).Settle(context.Background(), "0xdest", big.NewInt(1), "key-5")
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected transfer_failed, got %v", err)
	}
}

func TestSettleContextCanceledDuringPoll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(transferResponse{Status: StatusPending})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{
		BaseURL:      srv.URL,
		Timeout:      2 * time.Second,
		PollAttempts: 100,
		PollInterval: 50 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.Settle(ctx, "0xdest", big.NewInt(1), "key-6")
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected transfer_failed on cancellation, got %v", err)
	}
}

func TestStatusUnknownForMissingTransfer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	status, err := testClient(srv.URL, 3).Status(context.Background(), "never-submitted")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != StatusUnknown {
		t.Fatalf("expected unknown, got %q", status)
	}
}
