package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrAlreadyUsed: a uniqueness constraint rejected the write
// - ErrCapacityExhausted: a capacity-checked write found no free slot
// - ErrExpired: session has expired
// - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrExpired           = errors.New("expired")
	ErrAlreadyUsed       = errors.New("already used")
	ErrCapacityExhausted = errors.New("capacity exhausted")
	ErrInvalidState      = errors.New("invalid state")
	ErrUnavailable       = errors.New("unavailable")
)
