package models

import "time"

// Challenge is one arithmetic proof-of-human prompt. The expected answer is
// never serialised to clients; the signed token commits to it instead.
type Challenge struct {
	Prompt    string    `json:"prompt"`
	Answer    int       `json:"-"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
