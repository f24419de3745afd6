package handler

import (
	"owndrob/internal/craft/models"
	dErrors "owndrob/pkg/domain-errors"
)

// PublishRequest is the HTTP request body for POST /api/ipor-file.
type PublishRequest struct {
	Metadata *MetadataPayload `json:"metadata"`
}

// MetadataPayload mirrors the uploaded metadata document.
type MetadataPayload struct {
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

// Validate implements httputil.Validatable. Field rules live in the models
// package so the service enforces them for every caller.
func (r *PublishRequest) Validate() error {
	if r == nil || r.Metadata == nil {
		return dErrors.New(dErrors.CodeBadRequest, "missing metadata")
	}
	return nil
}

func (r *PublishRequest) ToMetadata() models.Metadata {
	m := r.Metadata
	return models.Metadata{
		Name:          m.Name,
		Version:       m.Version,
		Description:   m.Description,
		SupplyLimit:   m.Supplies,
		Color:         m.Color,
		Origin:        m.Origin,
		DeclaredValue: m.DeclaredValue,
		Label:         m.Label,
		Provider:      m.Provider,
		Crafter:       m.Crafter,
	}
}
