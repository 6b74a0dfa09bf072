// Package gateway provides value types for per-user payment gateway
// settings. Settings are keyed by (user, gateway) and owned by a store;
// there is no process-wide mutable configuration.
package gateway

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Name identifies a payment gateway.
type Name string

const (
	Stripe       Name = "stripe"
	PayPal       Name = "paypal"
	Razorpay     Name = "razorpay"
	BankTransfer Name = "bank_transfer"
)

// Known lists the supported gateways.
var Known = []Name{Stripe, PayPal, Razorpay, BankTransfer}

// Mode selects sandbox or production credentials.
type Mode string

const (
	ModeTest Mode = "test"
	ModeLive Mode = "live"
)

var (
	// ErrUnknownGateway is returned for a gateway name not in Known.
	ErrUnknownGateway = errors.New("unknown payment gateway")

	// ErrInvalidMode is returned for a mode other than test or live.
	ErrInvalidMode = errors.New("gateway mode must be test or live")

	// ErrMissingUser is returned when settings carry no owner.
	ErrMissingUser = errors.New("gateway settings require a user")
)

// ParseName converts a string into a known gateway Name.
func ParseName(s string) (Name, error) {
	n := Name(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Known {
		if n == known {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGateway, s)
}

// Key addresses one user's settings for one gateway.
type Key struct {
	UserID  string
	Gateway Name
}

// Settings holds the credentials a user configured for a gateway
// (value type). SecretKey and WebhookSecret are plaintext here; stores
// receive them sealed.
type Settings struct {
	UserID        string
	Gateway       Name
	Mode          Mode
	Enabled       bool
	PublicKey     string
	SecretKey     string
	WebhookSecret string
	UpdatedAt     time.Time
}

// Key returns the settings' address.
func (s Settings) Key() Key {
	return Key{UserID: s.UserID, Gateway: s.Gateway}
}

// Validate checks the settings are addressable and well formed.
// An empty mode is treated as test.
func (s Settings) Validate() error {
	if s.UserID == "" {
		return ErrMissingUser
	}
	if _, err := ParseName(string(s.Gateway)); err != nil {
		return err
	}
	switch s.Mode {
	case ModeTest, ModeLive, "":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, s.Mode)
	}
	return nil
}

// WithDefaults fills an empty mode.
func (s Settings) WithDefaults() Settings {
	if s.Mode == "" {
		s.Mode = ModeTest
	}
	return s
}

// Masked returns a copy safe to display, with secrets masked.
func (s Settings) Masked() Settings {
	s.SecretKey = Mask(s.SecretKey)
	s.WebhookSecret = Mask(s.WebhookSecret)
	return s
}

// Mask hides all but the last four characters of a secret.
// Secrets of four characters or fewer are fully hidden.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", 8) + secret[len(secret)-4:]
}
