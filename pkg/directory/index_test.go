package directory_test

import (
	"testing"

	"anukritich/nivaran/pkg/datastructure"
	"anukritich/nivaran/pkg/directory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestNGO(t *testing.T) {
	idx := directory.NewIndex()

	t.Run("empty index", func(t *testing.T) {
		_, ok := idx.NearestNGO(datastructure.NewCoordinate(12.97, 77.59))
		assert.False(t, ok)
	})

	idx.AddNGO(datastructure.NGO{ID: "ngo-1", Name: "Paws Koramangala", Location: datastructure.NewCoordinate(12.9352, 77.6245)})
	idx.AddNGO(datastructure.NGO{ID: "ngo-2", Name: "Strays MG Road", Location: datastructure.NewCoordinate(12.9752, 77.6050)})

	t.Run("picks the closer NGO", func(t *testing.T) {
		got, ok := idx.NearestNGO(datastructure.NewCoordinate(12.9716, 77.5946))
		require.True(t, ok)
		assert.Equal(t, "ngo-2", got.ID)

		got, ok = idx.NearestNGO(datastructure.NewCoordinate(12.9360, 77.6200))
		require.True(t, ok)
		assert.Equal(t, "ngo-1", got.ID)
	})
}

func TestNearbyCases(t *testing.T) {
	idx := directory.NewIndex()
	here := datastructure.NewCoordinate(12.9716, 77.5946)

	idx.AddCase(datastructure.Case{ID: "near", Location: datastructure.NewCoordinate(12.9730, 77.5950)})    // ~160 m
	idx.AddCase(datastructure.Case{ID: "mid", Location: datastructure.NewCoordinate(12.9800, 77.6050)})     // ~1.5 km
	idx.AddCase(datastructure.Case{ID: "faraway", Location: datastructure.NewCoordinate(13.1986, 77.7066)}) // ~28 km

	t.Run("filters by radius and sorts by distance", func(t *testing.T) {
		got := idx.NearbyCases(here, 5)
		require.Len(t, got, 2)
		assert.Equal(t, "near", got[0].ID)
		assert.Equal(t, "mid", got[1].ID)
	})

	t.Run("wide radius includes everything", func(t *testing.T) {
		got := idx.NearbyCases(here, 50)
		assert.Len(t, got, 3)
	})

	t.Run("zero radius", func(t *testing.T) {
		assert.Empty(t, idx.NearbyCases(here, 0))
	})
}
