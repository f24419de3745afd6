package models

import (
	"encoding/json"
	"time"
)

// Reason names why an admission was denied. Denials are values, not errors.
type Reason string

const (
	ReasonSupplyExhausted  Reason = "supply_exhausted"
	ReasonAlreadyClaimed   Reason = "already_claimed"
	ReasonArtifactNotFound Reason = "artifact_not_found"
)

var reasonMessages = map[Reason]string{
	ReasonSupplyExhausted:  "Max supply reached.",
	ReasonAlreadyClaimed:   "Item already claimed by this public key.",
	ReasonArtifactNotFound: "Item not found.",
}

// Message returns the human readable text for the reason.
func (r Reason) Message() string {
	return reasonMessages[r]
}

// Decision is the outcome of a read-only admission check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason, Message: reason.Message()}
}

// Claim is one admitted ownership row.
//
// Invariants:
//   - at most one Claim per (ContentID, ClaimantIdentity)
//   - the number of Claims per ContentID never exceeds the craft's supply limit
//   - only the mirror handles may be filled in after insert, and only once
type Claim struct {
	ContentID           string     `json:"metadata_cid"`
	FileHandle          string     `json:"metadata_file_id"`
	ClaimantIdentity    string     `json:"owner_public_key"`
	ClaimToken          string     `json:"signature_key"`
	ClaimedAt           time.Time  `json:"timestamp"`
	OwnershipArtifactID string     `json:"ownership_file_id,omitempty"`
	OwnershipCID        string     `json:"ownership_cid,omitempty"`
	MirroredAt          *time.Time `json:"mirrored_at,omitempty"`
	MirrorAttempts      int        `json:"-"`
	NextMirrorAt        *time.Time `json:"-"`
}

// MirrorPending reports whether the ownership record still has to be
// mirrored into the object store.
func (c *Claim) MirrorPending() bool {
	return c.OwnershipArtifactID == ""
}

// MirrorDue reports whether a pending mirror may be retried at now.
func (c *Claim) MirrorDue(now time.Time) bool {
	return c.NextMirrorAt == nil || !c.NextMirrorAt.After(now)
}

// Record is the ownership document mirrored into the object store.
type Record struct {
	ContentID        string `json:"metadata_cid"`
	FileHandle       string `json:"metadata_file_id"`
	ClaimantIdentity string `json:"owner_public_key"`
	ClaimToken       string `json:"signature_key"`
	ClaimedAt        string `json:"timestamp"`
}

// RecordFor builds the mirror document for a claim. The output depends only
// on stored columns, so re-encoding a persisted claim reproduces the bytes
// of the original upload.
func RecordFor(c Claim) Record {
	return Record{
		ContentID:        c.ContentID,
		FileHandle:       c.FileHandle,
		ClaimantIdentity: c.ClaimantIdentity,
		ClaimToken:       c.ClaimToken,
		ClaimedAt:        c.ClaimedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (r Record) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// ClaimTime normalizes a timestamp to what Postgres stores.
func ClaimTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// ClaimResult is returned by Claim.
type ClaimResult struct {
	Allowed             bool   `json:"allowed"`
	Reason              Reason `json:"reason,omitempty"`
	Message             string `json:"message,omitempty"`
	ClaimToken          string `json:"signature_key,omitempty"`
	OwnershipArtifactID string `json:"ownership_file_id,omitempty"`
	OwnershipCID        string `json:"ownership_cid,omitempty"`
	MirrorPending       bool   `json:"mirror_pending"`
}

func Denied(reason Reason) *ClaimResult {
	return &ClaimResult{Allowed: false, Reason: reason, Message: reason.Message()}
}

// Mirror holds the object store handles of an uploaded ownership record.
type Mirror struct {
	ArtifactID string
	CID        string
	At         time.Time
}
