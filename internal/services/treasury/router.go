package treasury

import (
	"context"
	"strings"

	"payguard/internal/validation"
)

// NetworkRouter picks the execution rail by destination network: fiat
// networks go to Stripe, everything else to the crypto treasury gateway.
type NetworkRouter struct {
	crypto Gateway
	fiat   Gateway
}

func NewNetworkRouter(crypto, fiat Gateway) *NetworkRouter {
	if crypto == nil {
		panic("crypto gateway is required")
	}
	return &NetworkRouter{crypto: crypto, fiat: fiat}
}

func (r *NetworkRouter) Execute(ctx context.Context, instruction TransferInstruction) (*TransferReceipt, error) {
	if validation.FiatNetworks[strings.ToLower(instruction.DestinationNetwork)] {
		if r.fiat == nil {
			return nil, &PermanentError{Reason: "fiat rail is not enabled"}
		}
		return r.fiat.Execute(ctx, instruction)
	}
	return r.crypto.Execute(ctx, instruction)
}
