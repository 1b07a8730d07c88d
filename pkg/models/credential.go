package models

import "time"

// Credential is an owner's token for one connected service. Token exchange
// and encryption happen outside this module; the scheduler only needs to
// know whether a credential is usable and when to ask for a refresh.
type Credential struct {
	UserID       string     `json:"user_id"`
	Service      string     `json:"service"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the access token needs a refresh at the given
// instant. Credentials without an expiry never expire.
func (c *Credential) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}
