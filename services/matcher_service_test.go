package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tiendabot/tiendabot-api/models"
)

func testCatalog() []models.Product {
	return []models.Product{
		{ID: 1, Name: "Coca Cola 1.5L", Price: 1500},
		{ID: 2, Name: "Sprite 1.5L", Price: 1400},
		{ID: 3, Name: "Yerba Mate Taragüi 1kg", Price: 4500},
		{ID: 4, Name: "Pan Francés", Price: 800},
	}
}

func TestMatchProduct(t *testing.T) {
	catalog := testCatalog()

	tests := []struct {
		name       string
		candidate  string
		expectedID uint
	}{
		{name: "partial brand name", candidate: "coca", expectedID: 1},
		{name: "no-space spelling", candidate: "cocacola", expectedID: 1},
		{name: "accented free text", candidate: "yerba taragüi", expectedID: 3},
		{name: "alias typo", candidate: "yrba", expectedID: 3},
		{name: "plural form", candidate: "panes", expectedID: 4},
		{name: "exact other product", candidate: "sprite", expectedID: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product, score := MatchProduct(tt.candidate, catalog)
			assert.NotNil(t, product, "expected a match for %q", tt.candidate)
			assert.Equal(t, tt.expectedID, product.ID)
			assert.Greater(t, score, 0.0)
		})
	}
}

func TestMatchProductNoMatch(t *testing.T) {
	catalog := testCatalog()

	product, score := MatchProduct("xyzzy", catalog)
	assert.Nil(t, product)
	assert.LessOrEqual(t, score, 0.0)

	product, _ = MatchProduct("", catalog)
	assert.Nil(t, product)

	product, _ = MatchProduct("coca", nil)
	assert.Nil(t, product)
}

func TestMatchProductTieKeepsEarliest(t *testing.T) {
	catalog := []models.Product{
		{ID: 10, Name: "Leche Entera 1L"},
		{ID: 11, Name: "Leche Entera 1L"},
	}

	product, score := MatchProduct("leche entera", catalog)
	assert.NotNil(t, product)
	assert.Greater(t, score, 0.0)
	assert.Equal(t, uint(10), product.ID, "ties keep the earliest-seen product")
}
