package models

import "time"

// ResetCode is one password-reset attempt. Rows are kept after use as an
// audit trail.
type ResetCode struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Code      string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

// IsValid reports whether the code can still be redeemed at now.
func (r *ResetCode) IsValid(now time.Time) bool {
	return !r.Used && r.ExpiresAt.After(now)
}
