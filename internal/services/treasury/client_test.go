package treasury

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"payguard/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInstruction() TransferInstruction {
	return TransferInstruction{
		MerchantID:         1,
		Amount:             250,
		Currency:           "USDC",
		DestinationWallet:  "0x1111111111111111111111111111111111111111",
		DestinationNetwork: "ethereum",
		IdempotencyKey:     "idem-1",
	}
}

// newTestGateway wires an HTTPGateway against a stub treasury server that
// serves sessions and delegates transfers to the handler.
func newTestGateway(t *testing.T, transfers http.HandlerFunc) (*HTTPGateway, *httptest.Server, *int64) {
	t.Helper()
	var sessionCalls int64
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&sessionCalls, 1)
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		json.NewEncoder(w).Encode(map[string]string{"token": "session-token"})
	})
	mux.HandleFunc("/v1/transfers", transfers)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	gw := NewHTTPGateway(config.TreasuryConfig{
		BaseURL:        srv.URL,
		APIKey:         "test-key",
		RequestTimeout: 5 * time.Second,
		SessionTTL:     time.Minute,
	})
	return gw, srv, &sessionCalls
}

func TestHTTPGateway_Execute_Success(t *testing.T) {
	gw, _, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))
		assert.Equal(t, "idem-1", r.Header.Get("Idempotency-Key"))

		var got TransferInstruction
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, 250.0, got.Amount)

		json.NewEncoder(w).Encode(transferResponse{
			Success:               true,
			TreasuryTransactionID: "tt-123",
			TransactionHash:       "0xabc",
		})
	})

	receipt, err := gw.Execute(context.Background(), testInstruction())

	require.NoError(t, err)
	assert.Equal(t, "tt-123", receipt.TreasuryTransactionID)
	assert.Equal(t, "0xabc", receipt.TransactionHash)
}

func TestHTTPGateway_Execute_ErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    *transferResponse
		check   func(*testing.T, error)
	}{
		{
			name:   "503 is a halt, not a failure",
			status: http.StatusServiceUnavailable,
			check:  func(t *testing.T, err error) { assert.True(t, IsHalted(err)) },
		},
		{
			name:   "429 is transient",
			status: http.StatusTooManyRequests,
			check:  func(t *testing.T, err error) { assert.True(t, IsTransient(err)) },
		},
		{
			name:   "500 is transient",
			status: http.StatusInternalServerError,
			check:  func(t *testing.T, err error) { assert.True(t, IsTransient(err)) },
		},
		{
			name:   "invalid address is permanent",
			status: http.StatusOK,
			body:   &transferResponse{ErrorCode: "INVALID_ADDRESS", ErrorMessage: "bad checksum"},
			check:  func(t *testing.T, err error) { assert.True(t, IsPermanent(err)) },
		},
		{
			name:   "compliance block is permanent",
			status: http.StatusOK,
			body:   &transferResponse{ErrorCode: "COMPLIANCE_BLOCK"},
			check:  func(t *testing.T, err error) { assert.True(t, IsPermanent(err)) },
		},
		{
			name:   "gateway-level emergency halt holds",
			status: http.StatusOK,
			body:   &transferResponse{ErrorCode: "EMERGENCY_HALT"},
			check:  func(t *testing.T, err error) { assert.True(t, IsHalted(err)) },
		},
		{
			name:   "unknown error code defaults to transient",
			status: http.StatusOK,
			body:   &transferResponse{ErrorCode: "SOMETHING_NEW"},
			check:  func(t *testing.T, err error) { assert.True(t, IsTransient(err)) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw, _, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				if tt.body != nil {
					json.NewEncoder(w).Encode(tt.body)
				}
			})

			_, err := gw.Execute(context.Background(), testInstruction())
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestHTTPGateway_Execute_InvalidatesSessionOn401(t *testing.T) {
	var transferCalls int64
	gw, _, sessionCalls := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&transferCalls, 1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(transferResponse{
			Success:               true,
			TreasuryTransactionID: "tt-1",
			TransactionHash:       "0x1",
		})
	})

	_, err := gw.Execute(context.Background(), testInstruction())
	assert.True(t, IsTransient(err), "401 surfaces as transient so the queue retries")

	// The retry fetches a fresh session instead of reusing the stale one.
	_, err = gw.Execute(context.Background(), testInstruction())
	assert.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(sessionCalls))
}

func TestSessionSource_CoalescesConcurrentFetches(t *testing.T) {
	gw, _, sessionCalls := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(transferResponse{
			Success:               true,
			TreasuryTransactionID: "tt-1",
			TransactionHash:       "0x1",
		})
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := gw.session.Token(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(sessionCalls),
		"concurrent token requests coalesce into one fetch")
}

func TestSessionSource_NegativeCachesRateLimit(t *testing.T) {
	var sessionCalls int64
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&sessionCalls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src := newSessionSource(srv.URL, "k", time.Minute, srv.Client())

	_, err := src.Token(context.Background())
	assert.True(t, IsTransient(err))

	// Follow-up calls inside the cooldown fail fast without another fetch.
	for i := 0; i < 5; i++ {
		_, err = src.Token(context.Background())
		assert.True(t, IsTransient(err))
	}
	assert.Equal(t, int64(1), atomic.LoadInt64(&sessionCalls))
}

func TestClassifyGatewayError_UsesCodeWhenMessageEmpty(t *testing.T) {
	err := classifyGatewayError("CEILING_EXCEEDED", "")
	assert.True(t, IsPermanent(err))
	assert.Contains(t, err.Error(), "CEILING_EXCEEDED")
}
