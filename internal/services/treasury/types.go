// Package treasury integrates the external treasury execution gateway.
// The gateway custodies funds under its own multi-signature controls; this
// package only submits approved transfers and classifies the outcome.
package treasury

import "context"

// TransferInstruction is one approved payout handed to the gateway. The
// idempotency key makes resubmission after a crash safe.
type TransferInstruction struct {
	MerchantID         uint    `json:"merchant_id"`
	Amount             float64 `json:"amount"`
	Currency           string  `json:"currency"`
	DestinationWallet  string  `json:"destination_wallet"`
	DestinationNetwork string  `json:"destination_network"`
	IdempotencyKey     string  `json:"idempotency_key"`
}

// TransferReceipt is the gateway's confirmation of an executed transfer.
type TransferReceipt struct {
	TreasuryTransactionID string `json:"treasury_transaction_id"`
	TransactionHash       string `json:"transaction_hash"`
}

// Gateway executes approved transfers. Errors are typed: TransientError is
// retryable, PermanentError is terminal, HaltedError means the gateway's
// emergency halt is active and the request must stay PENDING untouched.
type Gateway interface {
	Execute(ctx context.Context, instruction TransferInstruction) (*TransferReceipt, error)
}
