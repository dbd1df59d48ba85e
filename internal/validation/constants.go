package validation

// Destination networks the treasury gateway can settle on. The fiat rails
// are routed to the Stripe payout implementation.
var SupportedNetworks = map[string]bool{
	"ethereum": true,
	"polygon":  true,
	"base":     true,
	"solana":   true,
	"ach":      true,
	"sepa":     true,
}

// Currencies accepted on payout candidates.
var SupportedCurrencies = map[string]bool{
	"USDC": true,
	"USDT": true,
	"USD":  true,
	"EUR":  true,
}

// FiatNetworks marks networks executed over the fiat rail.
var FiatNetworks = map[string]bool{
	"ach":  true,
	"sepa": true,
}

const (
	MinPayoutAmount = 0.01
	MaxPriority     = 10
)
