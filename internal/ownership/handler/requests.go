package handler

import (
	"strings"

	dErrors "owndrob/pkg/domain-errors"
)

// OwnershipRequest is the body for validate-ownership and register-ownership.
// Older clients send the claimant as public_key.
type OwnershipRequest struct {
	ContentID      string `json:"metadata_cid"`
	OwnerPublicKey string `json:"owner_public_key"`
	PublicKey      string `json:"public_key"`
}

func (r *OwnershipRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "missing body")
	}
	r.ContentID = strings.TrimSpace(r.ContentID)
	r.OwnerPublicKey = strings.TrimSpace(r.OwnerPublicKey)
	if r.OwnerPublicKey == "" {
		r.OwnerPublicKey = strings.TrimSpace(r.PublicKey)
	}
	if r.ContentID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "metadata_cid is required")
	}
	if r.OwnerPublicKey == "" {
		return dErrors.New(dErrors.CodeBadRequest, "owner_public_key is required")
	}
	return nil
}
