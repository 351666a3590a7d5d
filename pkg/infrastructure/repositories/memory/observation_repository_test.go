package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/invplan/pkg/domain/entities"
)

func mustObservation(t *testing.T, day int, productID entities.ProductID, demand float64) *entities.Observation {
	t.Helper()
	obs, err := entities.NewObservation(time.Date(2023, time.June, day, 0, 0, 0, 0, time.UTC), productID, demand, 100)
	require.NoError(t, err)
	return obs
}

func TestObservationRepository_GetSeries(t *testing.T) {
	repo := NewObservationRepository()

	err := repo.LoadObservations([]*entities.Observation{
		mustObservation(t, 1, "SKU-2", 5),
		mustObservation(t, 1, "SKU-1", 10),
		mustObservation(t, 2, "SKU-1", 12),
		mustObservation(t, 2, "SKU-2", 6),
		mustObservation(t, 3, "SKU-1", 9),
	})
	require.NoError(t, err)

	assert.Equal(t, []entities.ProductID{"SKU-2", "SKU-1"}, repo.GetProductIDs())

	series, err := repo.GetSeries("SKU-1")
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 12, 9}, series.Demands())

	series, err = repo.GetSeries("SKU-2")
	require.NoError(t, err)
	assert.Equal(t, 2, series.Len())
}

func TestObservationRepository_UnknownProduct(t *testing.T) {
	repo := NewObservationRepository()
	_, err := repo.GetSeries("NOPE")
	assert.ErrorIs(t, err, entities.ErrDataLoad)
}

func TestObservationRepository_GapSurfacesOnGetSeries(t *testing.T) {
	repo := NewObservationRepository()
	require.NoError(t, repo.LoadObservations([]*entities.Observation{
		mustObservation(t, 1, "SKU-1", 10),
		mustObservation(t, 3, "SKU-1", 12),
	}))

	_, err := repo.GetSeries("SKU-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrDataLoad)
	assert.Contains(t, err.Error(), "gap in daily series")
}

func TestObservationRepository_NilObservation(t *testing.T) {
	repo := NewObservationRepository()
	err := repo.LoadObservations([]*entities.Observation{mustObservation(t, 1, "SKU-1", 10), nil})
	assert.ErrorIs(t, err, entities.ErrDataLoad)
}

func TestObservationRepository_ProductIDsAreCopied(t *testing.T) {
	repo := NewObservationRepository()
	require.NoError(t, repo.LoadObservations([]*entities.Observation{mustObservation(t, 1, "SKU-1", 10)}))

	ids := repo.GetProductIDs()
	ids[0] = "CHANGED"
	assert.Equal(t, []entities.ProductID{"SKU-1"}, repo.GetProductIDs())
}
