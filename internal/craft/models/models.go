package models

import (
	"strings"
	"time"
	"unicode/utf8"

	dErrors "owndrob/pkg/domain-errors"
)

const (
	maxNameLength        = 128
	maxDescriptionLength = 4096
	maxFieldLength       = 256
	// MaxSupplyLimit caps the declared supply of a single artifact.
	MaxSupplyLimit = 1_000_000
)

// Metadata is the crafter-supplied description of a physical good.
type Metadata struct {
	Name          string
	Version       string
	Description   string
	SupplyLimit   int
	Color         string
	Origin        string
	DeclaredValue float64
	Label         string
	Provider      string
	Crafter       string
}

// Normalize trims surrounding whitespace from every text field.
func (m *Metadata) Normalize() {
	m.Name = strings.TrimSpace(m.Name)
	m.Version = strings.TrimSpace(m.Version)
	m.Description = strings.TrimSpace(m.Description)
	m.Color = strings.TrimSpace(m.Color)
	m.Origin = strings.TrimSpace(m.Origin)
	m.Label = strings.TrimSpace(m.Label)
	m.Provider = strings.TrimSpace(m.Provider)
	m.Crafter = strings.TrimSpace(m.Crafter)
}

// Validate enforces the publish preconditions. It never has side effects.
func (m *Metadata) Validate() error {
	if m.SupplyLimit <= 0 {
		return dErrors.New(dErrors.CodeValidation, "supplies must be greater than zero")
	}
	if m.SupplyLimit > MaxSupplyLimit {
		return dErrors.New(dErrors.CodeValidation, "supplies exceeds the maximum supply")
	}
	if m.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "ipor_name is required")
	}
	if m.Crafter == "" {
		return dErrors.New(dErrors.CodeValidation, "crafter is required")
	}
	if utf8.RuneCountInString(m.Name) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "ipor_name must be 128 characters or less")
	}
	if utf8.RuneCountInString(m.Description) > maxDescriptionLength {
		return dErrors.New(dErrors.CodeValidation, "description must be 4096 characters or less")
	}
	for field, v := range map[string]string{
		"version":               m.Version,
		"color":                 m.Color,
		"manufacturing_country": m.Origin,
		"label":                 m.Label,
		"provider":              m.Provider,
		"crafter":               m.Crafter,
	} {
		if utf8.RuneCountInString(v) > maxFieldLength {
			return dErrors.New(dErrors.CodeValidation, field+" must be 256 characters or less")
		}
	}
	if m.DeclaredValue < 0 {
		return dErrors.New(dErrors.CodeValidation, "value must not be negative")
	}
	return nil
}

// Document is the JSON body uploaded to the object store. Field order is
// fixed by the struct so identical metadata always encodes to identical bytes.
type Document struct {
	Name          string  `json:"ipor_name"`
	Version       string  `json:"version"`
	Description   string  `json:"description"`
	Supplies      int     `json:"supplies"`
	Color         string  `json:"color"`
	Origin        string  `json:"manufacturing_country"`
	DeclaredValue float64 `json:"value"`
	Label         string  `json:"label"`
	Provider      string  `json:"provider"`
	Crafter       string  `json:"crafter"`
}

func (m Metadata) Document() Document {
	return Document{
		Name:          m.Name,
		Version:       m.Version,
		Description:   m.Description,
		Supplies:      m.SupplyLimit,
		Color:         m.Color,
		Origin:        m.Origin,
		DeclaredValue: m.DeclaredValue,
		Label:         m.Label,
		Provider:      m.Provider,
		Crafter:       m.Crafter,
	}
}

// Craft is the index row for one published artifact.
//
// Invariants:
//   - ContentID is unique and never changes
//   - SupplyLimit is positive and never changes
//   - the row is never updated or deleted after insert
type Craft struct {
	ContentID       string    `json:"metadata_cid"`
	FileHandle      string    `json:"metadata_file_id"`
	GroupID         string    `json:"group_id"`
	CrafterIdentity string    `json:"crafter"`
	SupplyLimit     int       `json:"supplies"`
	Name            string    `json:"ipor_name"`
	Version         string    `json:"version"`
	Description     string    `json:"description"`
	Color           string    `json:"color"`
	Origin          string    `json:"manufacturing_country"`
	DeclaredValue   float64   `json:"value"`
	Label           string    `json:"label"`
	Provider        string    `json:"provider"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewCraft assembles the index row from validated metadata and the handles
// returned by the object store.
func NewCraft(m Metadata, contentID, fileHandle, groupID string, now time.Time) (*Craft, error) {
	if contentID == "" || fileHandle == "" || groupID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "craft requires content id, file handle and group id")
	}
	if m.SupplyLimit <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "craft supply limit must be positive")
	}
	return &Craft{
		ContentID:       contentID,
		FileHandle:      fileHandle,
		GroupID:         groupID,
		CrafterIdentity: m.Crafter,
		SupplyLimit:     m.SupplyLimit,
		Name:            m.Name,
		Version:         m.Version,
		Description:     m.Description,
		Color:           m.Color,
		Origin:          m.Origin,
		DeclaredValue:   m.DeclaredValue,
		Label:           m.Label,
		Provider:        m.Provider,
		CreatedAt:       now,
	}, nil
}

// PublishResult is returned once the index row is committed.
type PublishResult struct {
	ContentID  string `json:"metadata_cid"`
	FileHandle string `json:"metadata_file_id"`
	GroupID    string `json:"group_id"`
}
