package checkout

import "context"

// SessionComplete is the provider status of a session the customer finished.
const SessionComplete = "complete"

// Payment statuses that allow an order to be finalized. Async methods leave a
// complete session "unpaid" until the funds settle.
const (
	PaymentStatusPaid              = "paid"
	PaymentStatusNoPaymentRequired = "no_payment_required"
)

// Metadata keys attached to every provider session.
const (
	MetadataOrderID = "order_id"
	MetadataCartID  = "cart_id"
)

// SessionIDPlaceholder is substituted by the provider with the real session id
// when it redirects the customer back.
const SessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

// PaymentProvider creates and retrieves hosted checkout sessions.
type PaymentProvider interface {
	CreateSession(ctx context.Context, req SessionRequest) (*ProviderSession, error)
	GetSession(ctx context.Context, sessionID string) (*ProviderSession, error)
}

// ManifestLine is one charged line of a checkout session.
type ManifestLine struct {
	Name            string
	Quantity        int64
	UnitAmountCents int64
}

// SessionRequest describes the session to open with the provider.
type SessionRequest struct {
	Lines     []ManifestLine
	Metadata  map[string]string
	ReturnURL string
	Currency  string
}

// ProviderSession is the provider's view of a checkout session.
type ProviderSession struct {
	ID            string
	ClientSecret  string
	Status        string
	PaymentStatus string
	Metadata      map[string]string
}

// Complete reports whether the customer finished the checkout flow.
func (s *ProviderSession) Complete() bool {
	return s != nil && s.Status == SessionComplete
}

// Paid reports whether the session is complete and its funds are captured.
func (s *ProviderSession) Paid() bool {
	if !s.Complete() {
		return false
	}
	switch s.PaymentStatus {
	case PaymentStatusPaid, PaymentStatusNoPaymentRequired:
		return true
	default:
		return false
	}
}

// ManifestTotal sums quantity times unit amount over lines.
func ManifestTotal(lines []ManifestLine) int64 {
	var total int64
	for _, line := range lines {
		total += line.Quantity * line.UnitAmountCents
	}
	return total
}
