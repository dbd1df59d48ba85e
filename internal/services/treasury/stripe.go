package treasury

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"strings"

	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

// StripeGateway executes payouts on the fiat rails (ACH/SEPA) through
// Stripe. DestinationWallet carries the connected external account id.
type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}
}

func (g *StripeGateway) Execute(ctx context.Context, instruction TransferInstruction) (*TransferReceipt, error) {
	params := &stripe.PayoutParams{
		Amount:      stripe.Int64(int64(math.Round(instruction.Amount * 100))),
		Currency:    stripe.String(strings.ToLower(instruction.Currency)),
		Destination: stripe.String(instruction.DestinationWallet),
		Method:      stripe.String("standard"),
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(instruction.IdempotencyKey)
	params.AddMetadata("merchant_id", fmt.Sprint(instruction.MerchantID))

	payout, err := g.api.Payouts.New(params)
	if err != nil {
		return nil, classifyStripeError(err)
	}

	receipt := &TransferReceipt{TreasuryTransactionID: payout.ID}
	// Fiat rails have no chain hash; the Stripe balance transaction is
	// the settlement reference.
	if payout.BalanceTransaction != nil {
		receipt.TransactionHash = payout.BalanceTransaction.ID
	} else {
		receipt.TransactionHash = payout.ID
	}
	return receipt, nil
}

// classifyStripeError maps Stripe error types onto the shared taxonomy.
func classifyStripeError(err error) error {
	var stripeErr *stripe.Error
	if !stderrors.As(err, &stripeErr) {
		return &TransientError{Reason: err.Error()}
	}

	switch stripeErr.Type {
	case stripe.ErrorTypeInvalidRequest, stripe.ErrorTypeCard:
		return &PermanentError{Reason: stripeErr.Msg}
	case stripe.ErrorTypeRateLimit:
		return &TransientError{Reason: stripeErr.Msg}
	default:
		return &TransientError{Reason: stripeErr.Msg}
	}
}
