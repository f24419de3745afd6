package models

import (
	"regexp"
	"strings"
	"time"

	dErrors "owndrob/pkg/domain-errors"
)

var nicknamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,64}$`)

const (
	minPINLength = 4
	maxPINLength = 64
	maxKeyLength = 4096
)

// Identity is a nickname/PIN account bound to a public key. Key material is
// opaque to the service.
type Identity struct {
	Nickname     string    `json:"unique_nickname"`
	PINHash      string    `json:"-"`
	RecoveryHash string    `json:"-"`
	PublicKey    string    `json:"public_key"`
	PrivateKey   string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is the public view of an identity.
type Profile struct {
	Nickname  string `json:"unique_nickname"`
	PublicKey string `json:"public_key"`
}

func (i *Identity) Profile() Profile {
	return Profile{Nickname: i.Nickname, PublicKey: i.PublicKey}
}

// Signup carries the fields submitted when creating an identity.
type Signup struct {
	Nickname     string
	PIN          string
	RecoveryHash string
	PublicKey    string
	PrivateKey   string
}

func (s *Signup) Normalize() {
	s.Nickname = strings.TrimSpace(s.Nickname)
	s.PublicKey = strings.TrimSpace(s.PublicKey)
	s.RecoveryHash = strings.TrimSpace(s.RecoveryHash)
}

func (s *Signup) Validate() error {
	if !nicknamePattern.MatchString(s.Nickname) {
		return dErrors.New(dErrors.CodeValidation, "unique_nickname must be 3-64 letters, digits, '.', '_' or '-'")
	}
	if len(s.PIN) < minPINLength || len(s.PIN) > maxPINLength {
		return dErrors.New(dErrors.CodeValidation, "pin must be between 4 and 64 characters")
	}
	if s.PublicKey == "" {
		return dErrors.New(dErrors.CodeValidation, "public_key is required")
	}
	if len(s.PublicKey) > maxKeyLength || len(s.PrivateKey) > maxKeyLength || len(s.RecoveryHash) > maxKeyLength {
		return dErrors.New(dErrors.CodeValidation, "key material too long")
	}
	return nil
}

// Session is an opaque bearer session.
type Session struct {
	ID        string    `json:"id"`
	Nickname  string    `json:"unique_nickname"`
	Client    string    `json:"client"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
