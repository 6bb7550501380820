// Package accounts is the credential store and the account HTTP endpoints:
// registration, login and the authenticated account lookup.
package accounts

import (
	"time"

	"github.com/google/uuid"
)

// Account is the public projection of an account row. The password hash is
// never loaded into it, so it cannot leak into a response.
type Account struct {
	ID              uuid.UUID  `json:"id" example:"5f3a6d3e-8f0e-4d8a-9a57-0a5f7c8a2b11"`
	Email           string     `json:"email" example:"alice@example.com"`
	AccountName     string     `json:"account_name" example:"alice"`
	EmailVerifiedAt *time.Time `json:"email_verified_at" example:"2024-03-01T12:00:00Z"`
	PhotoIdentifier *string    `json:"photo_identifier" example:"avatars/alice.png"`
}
