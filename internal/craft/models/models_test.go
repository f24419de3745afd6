package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "owndrob/pkg/domain-errors"
)

func validMetadata() Metadata {
	return Metadata{
		Name:        "Walnut Chair",
		Version:     "1",
		SupplyLimit: 3,
		Origin:      "PT",
		Crafter:     "pk-crafter",
	}
}

func TestMetadataValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m *Metadata)
		wantErr string
	}{
		{"valid", func(m *Metadata) {}, ""},
		{"zero supply", func(m *Metadata) { m.SupplyLimit = 0 }, "supplies must be greater than zero"},
		{"negative supply", func(m *Metadata) { m.SupplyLimit = -2 }, "supplies must be greater than zero"},
		{"huge supply", func(m *Metadata) { m.SupplyLimit = MaxSupplyLimit + 1 }, "maximum supply"},
		{"missing name", func(m *Metadata) { m.Name = "" }, "ipor_name is required"},
		{"missing crafter", func(m *Metadata) { m.Crafter = "" }, "crafter is required"},
		{"long name", func(m *Metadata) { m.Name = strings.Repeat("x", 129) }, "128 characters"},
		{"long label", func(m *Metadata) { m.Label = strings.Repeat("x", 257) }, "label must be 256"},
		{"negative value", func(m *Metadata) { m.DeclaredValue = -1 }, "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMetadata()
			tt.mutate(&m)
			err := m.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDocumentEncodingIsStable(t *testing.T) {
	m := validMetadata()
	a, err := json.Marshal(m.Document())
	require.NoError(t, err)
	b, err := json.Marshal(m.Document())
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(string(a), `{"ipor_name":"Walnut Chair","version":"1"`))
}

func TestNewCraftRequiresHandles(t *testing.T) {
	_, err := NewCraft(validMetadata(), "", "f", "g", time.Now())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	c, err := NewCraft(validMetadata(), "bafk", "f", "g", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 3, c.SupplyLimit)
	assert.Equal(t, "pk-crafter", c.CrafterIdentity)
}
