package handler

import (
	"owndrob/internal/oath/models"
	dErrors "owndrob/pkg/domain-errors"
)

type SignupRequest struct {
	Nickname     string `json:"unique_nickname"`
	PIN          string `json:"pin"`
	RecoveryHash string `json:"recovery_hash"`
	PublicKey    string `json:"public_key"`
	PrivateKey   string `json:"private_key"`
}

// Validate only checks presence; field rules are enforced by the service.
func (r *SignupRequest) Validate() error {
	if r.Nickname == "" || r.PIN == "" || r.PublicKey == "" {
		return dErrors.New(dErrors.CodeBadRequest, "unique_nickname, pin and public_key are required")
	}
	return nil
}

func (r *SignupRequest) ToSignup() models.Signup {
	return models.Signup{
		Nickname:     r.Nickname,
		PIN:          r.PIN,
		RecoveryHash: r.RecoveryHash,
		PublicKey:    r.PublicKey,
		PrivateKey:   r.PrivateKey,
	}
}

type SigninRequest struct {
	Nickname string `json:"unique_nickname"`
	PIN      string `json:"pin"`
}

func (r *SigninRequest) Validate() error {
	if r.Nickname == "" || r.PIN == "" {
		return dErrors.New(dErrors.CodeBadRequest, "Missing nickname or PIN.")
	}
	return nil
}
