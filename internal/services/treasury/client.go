package treasury

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"payguard/internal/config"
)

// HTTPGateway talks to the crypto treasury collaborator over its REST API.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
	session *sessionSource
}

func NewHTTPGateway(cfg config.TreasuryConfig) *HTTPGateway {
	client := &http.Client{Timeout: cfg.RequestTimeout}
	return &HTTPGateway{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
		session: newSessionSource(cfg.BaseURL, cfg.APIKey, cfg.SessionTTL, client),
	}
}

type transferResponse struct {
	Success               bool   `json:"success"`
	TreasuryTransactionID string `json:"treasury_transaction_id"`
	TransactionHash       string `json:"transaction_hash"`
	ErrorCode             string `json:"error_code"`
	ErrorMessage          string `json:"error_message"`
}

// Execute submits the transfer. The gateway deduplicates on the
// idempotency key, so a retried submission of the same attempt cannot
// double-spend.
func (g *HTTPGateway) Execute(ctx context.Context, instruction TransferInstruction) (*TransferReceipt, error) {
	token, err := g.session.Token(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(instruction)
	if err != nil {
		return nil, &PermanentError{Reason: fmt.Sprintf("failed to encode instruction: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/transfers", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Idempotency-Key", instruction.IdempotencyKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &TransientError{Reason: fmt.Sprintf("transfer request failed: %v", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		g.session.Invalidate()
		return nil, &TransientError{Reason: "session expired"}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &TransientError{Reason: "gateway rate limited"}
	case resp.StatusCode == http.StatusServiceUnavailable:
		// The gateway reports its emergency halt as 503; this must hold
		// the request, never count as a failed attempt.
		return nil, &HaltedError{Reason: "treasury gateway halted"}
	case resp.StatusCode >= 500:
		return nil, &TransientError{Reason: fmt.Sprintf("gateway returned %d", resp.StatusCode)}
	}

	var payload transferResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &TransientError{Reason: fmt.Sprintf("failed to decode gateway response: %v", err)}
	}

	if !payload.Success {
		return nil, classifyGatewayError(payload.ErrorCode, payload.ErrorMessage)
	}
	if payload.TreasuryTransactionID == "" || payload.TransactionHash == "" {
		return nil, &TransientError{Reason: "gateway confirmed without transaction references"}
	}

	return &TransferReceipt{
		TreasuryTransactionID: payload.TreasuryTransactionID,
		TransactionHash:       payload.TransactionHash,
	}, nil
}

// classifyGatewayError maps the gateway's error codes onto the typed
// transient/permanent taxonomy. Unknown codes are treated as transient so
// a new failure mode cannot silently burn a request.
func classifyGatewayError(code, message string) error {
	reason := message
	if reason == "" {
		reason = code
	}
	switch code {
	case "INVALID_ADDRESS", "COMPLIANCE_BLOCK", "UNSUPPORTED_NETWORK", "CEILING_EXCEEDED":
		return &PermanentError{Reason: reason}
	case "EMERGENCY_HALT":
		return &HaltedError{Reason: reason}
	default:
		return &TransientError{Reason: reason}
	}
}
