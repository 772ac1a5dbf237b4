package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLookup(t *testing.T) {
	table := Default()

	tests := []struct {
		token  string
		family Family
		factor float64
	}{
		{"g", Mass, 1},
		{"kg", Mass, 1000},
		{"KG", Mass, 1000},
		{" l ", Volume, 1000},
		{"ml", Volume, 1},
		{"EL", Volume, 15},
		{"TL", Volume, 5},
		{"T", Volume, 15},
		{"t", Volume, 5},
		{"ts", Volume, 5},
		{"tb", Volume, 15},
		{"TB", Volume, 15},
		{"Stück", Count, 1},
		{"Bund", Other, 1},
		{"Prise", Other, 1},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			fam, factor := table.Lookup(tt.token)
			assert.Equal(t, tt.family, fam)
			assert.Equal(t, tt.factor, factor)
		})
	}
}

func TestCanonicalIsExact(t *testing.T) {
	table := Default()

	kgKey, kg := table.Canonical(1, "kg")
	gKey, g := table.Canonical(1000, "g")
	assert.Equal(t, kgKey, gKey)
	assert.Equal(t, kg, g)
	assert.Equal(t, "g", kgKey.Unit())

	lKey, l := table.Canonical(1, "l")
	mlKey, ml := table.Canonical(1000, "ml")
	assert.Equal(t, lKey, mlKey)
	assert.Equal(t, l, ml)
	assert.Equal(t, "ml", lKey.Unit())
}

func TestCanonicalKeepsFamiliesApart(t *testing.T) {
	table := Default()

	gKey, _ := table.Canonical(1, "g")
	pieceKey, _ := table.Canonical(1, "Stück")
	assert.NotEqual(t, gKey, pieceKey)

	bund, _ := table.Canonical(1, "Bund")
	dose, _ := table.Canonical(1, "Dose")
	assert.NotEqual(t, bund, dose)
	assert.Equal(t, "Bund", bund.Unit())

	again, _ := table.Canonical(2, "Bund")
	assert.Equal(t, bund, again)
}

func TestNewTableRejectsBadRows(t *testing.T) {
	_, err := NewTable([]Unit{{"g", Mass, 0}})
	require.Error(t, err)

	_, err = NewTable([]Unit{{"", Mass, 1}})
	require.Error(t, err)

	_, err = NewTable([]Unit{{"g", Mass, 1}, {"g", Mass, 1}})
	require.Error(t, err)
}

func TestFamilyYAML(t *testing.T) {
	var list []Unit
	err := yaml.Unmarshal([]byte(`
- token: Becher
  family: volume
  factor: 200
- token: Knolle
  family: count
  factor: 1
`), &list)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, Volume, list[0].Family)
	assert.Equal(t, Count, list[1].Family)

	var f Family
	assert.Error(t, f.UnmarshalText([]byte("weight")))
}
