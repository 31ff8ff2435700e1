package phonelines

import (
	"context"
	"errors"
	"strings"
)

// PhoneLine is a tenant-owned number with routing configuration.
//
// The routing engine only reads phone lines; CRUD lives elsewhere.
// Multi-tenant invariant: TenantID is required on every row.

type PhoneLine struct {
	ID          string `json:"id" db:"id"`
	TenantID    string `json:"tenant_id" db:"tenant_id"`
	PhoneNumber string `json:"phone_number" db:"phone_number"`

	// ForwardTo is the owner's number used when no rule applies. Empty means ring PhoneNumber.
	ForwardTo string `json:"forward_to,omitempty" db:"forward_to"`

	// ProviderID identifies the telephony provider account the line is hosted on.
	ProviderID string `json:"provider_id" db:"provider_id"`
}

// OwnerTarget is where the "ring owner" bridge goes: ForwardTo if set, else the line itself.
func (p PhoneLine) OwnerTarget() string {
	if t := strings.TrimSpace(p.ForwardTo); t != "" {
		return t
	}
	return p.PhoneNumber
}

var ErrNotFound = errors.New("phonelines: not found")

// Repository looks up phone lines by dialed number.
// Implementations return ErrNotFound when no active line owns the number.
type Repository interface {
	GetByNumber(ctx context.Context, number string) (PhoneLine, error)
}

// NormalizeNumber trims whitespace; numbers are otherwise compared verbatim.
func NormalizeNumber(n string) string {
	return strings.TrimSpace(n)
}
