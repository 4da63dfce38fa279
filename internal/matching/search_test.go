package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "citroen", Normalize("Citroën"))
	assert.Equal(t, "mercedes benz", Normalize("  Mercedes-Benz "))
	assert.Equal(t, "skoda octavia", Normalize("ŠKODA   Octavia"))
}

func TestFilter(t *testing.T) {
	brands := []string{"Alfa Romeo", "Citroën", "Lancia", "Fiat", "Mercedes-Benz"}

	tests := []struct {
		query string
		want  []string
	}{
		{"", brands},
		{"CITRO", []string{"Citroën"}},
		{"citroen", []string{"Citroën"}},
		{"a", []string{"Alfa Romeo", "Lancia", "Fiat"}},
		{"benz", []string{"Mercedes-Benz"}},
		{"mercedes benz", []string{"Mercedes-Benz"}},
		{"zzz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, Filter(brands, tt.query))
		})
	}
}

func TestFilter_PrefixFirst(t *testing.T) {
	models := []string{"Grande Punto", "Punto", "Punto Evo"}
	assert.Equal(t, []string{"Punto", "Punto Evo", "Grande Punto"}, Filter(models, "punto"))
}

func TestFilter_DoesNotAliasInput(t *testing.T) {
	brands := []string{"Fiat"}
	out := Filter(brands, "")
	out[0] = "changed"
	assert.Equal(t, "Fiat", brands[0])
}
