package decision

// Decision is the closed set of automation outcomes. Every call site
// switches over all three values; new outcomes cannot be silently ignored.
type Decision string

const (
	AutoApprove  Decision = "AUTO_APPROVE"
	AutoReject   Decision = "AUTO_REJECT"
	ManualReview Decision = "MANUAL_REVIEW"
)

// Outcome carries the decision and the ordered reasons that produced it.
// Both are persisted with the request and journaled.
type Outcome struct {
	Decision Decision
	Reasons  []string
}

// Candidate is the payout under evaluation.
type Candidate struct {
	MerchantID         uint
	Amount             float64
	Currency           string
	DestinationWallet  string
	DestinationNetwork string
}

// LedgerView is the window consumption snapshot the engine evaluates
// against. Amounts are what has already been admitted in each window.
type LedgerView struct {
	DailyConsumed   float64
	WeeklyConsumed  float64
	MonthlyConsumed float64
}

// Denylist flags destinations blocked by compliance. It is the only
// signal, together with a merchant emergency halt, that can produce
// AUTO_REJECT.
type Denylist interface {
	Blocked(wallet, network string) bool
}

// StaticDenylist is a fixed wallet set loaded from configuration.
type StaticDenylist map[string]bool

func NewStaticDenylist(wallets []string) StaticDenylist {
	d := make(StaticDenylist, len(wallets))
	for _, w := range wallets {
		d[w] = true
	}
	return d
}

func (d StaticDenylist) Blocked(wallet, network string) bool {
	return d[wallet]
}
