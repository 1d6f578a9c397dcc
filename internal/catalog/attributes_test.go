package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		productType string
		color       string
		gender      string
	}{
		{
			name:        "boot with color and age segment",
			text:        "Stivaletto rosa da bambina",
			productType: "stivale",
			color:       "rosa",
			gender:      "bambina",
		},
		{
			name:        "generic shoe keyword maps to sneakers",
			text:        "scarpa rosa da bambina",
			productType: "scarpa_sportiva",
			color:       "rosa",
			gender:      "bambina",
		},
		{
			name:        "type only",
			text:        "maglione",
			productType: "maglione",
		},
		{
			name:  "color only",
			text:  "qualcosa di rosso",
			color: "rosso",
		},
		{
			name:        "english keywords",
			text:        "Black running sneakers for men",
			productType: "scarpa_sportiva",
			color:       "nero",
			gender:      "uomo",
		},
		{
			name:        "woman not shadowed by man substring",
			text:        "Sandali eleganti da donna",
			productType: "sandalo",
			gender:      "donna",
		},
		{
			name: "no vocabulary hit",
			text: "spedizione gratuita in 24 ore",
		},
		{
			name:        "case insensitive",
			text:        "STIVALE IN PELLE MARRONE",
			productType: "stivale",
			color:       "marrone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := Classify(tt.text)

			assertLabel(t, tt.productType, attrs.ProductType, "product type")
			assertLabel(t, tt.color, attrs.Color, "color")
			assertLabel(t, tt.gender, attrs.Gender, "gender")
		})
	}
}

func assertLabel(t *testing.T, want string, got *string, field string) {
	t.Helper()
	if want == "" {
		assert.Nil(t, got, field)
		return
	}
	if assert.NotNil(t, got, field) {
		assert.Equal(t, want, *got, field)
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	// Text mentioning both a boot and the generic shoe keyword resolves to
	// whichever entry is declared first in the vocabulary.
	attrs := Classify("stivale o scarpa, non so decidere")
	if assert.NotNil(t, attrs.ProductType) {
		assert.Equal(t, "stivale", *attrs.ProductType)
	}
}

func TestClassifyVocabulariesAreIndependent(t *testing.T) {
	attrs := Classify("borsa verde")
	assert.NotNil(t, attrs.ProductType)
	assert.NotNil(t, attrs.Color)
	assert.Nil(t, attrs.Gender)
}
