package testing

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/vsinha/invplan/pkg/domain/entities"
	"github.com/vsinha/invplan/pkg/infrastructure/repositories/memory"
)

const (
	// ReferenceProduct is the product of the synthetic series
	ReferenceProduct entities.ProductID = "SKU-1"
	// ReferenceDays is the length of the synthetic series
	ReferenceDays = 62
)

// ReferenceStart is the first date of the synthetic series
var ReferenceStart = time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)

// SyntheticDemand is the demand on day t of the synthetic series: a weekly
// cycle around 120 units plus a deterministic sawtooth.
func SyntheticDemand(t int) float64 {
	return math.Round(120 + 10*math.Sin(2*math.Pi*float64(t)/7) + float64((t*37)%17-8))
}

// SyntheticInventory is the on-hand inventory on day t of the synthetic series
func SyntheticInventory(t int) float64 {
	return float64(6000 - 8*t)
}

// BuildObservations builds a contiguous daily series for productID
func BuildObservations(productID entities.ProductID, start time.Time, days int) []*entities.Observation {
	observations := make([]*entities.Observation, 0, days)
	for t := 0; t < days; t++ {
		obs, err := entities.NewObservation(start.AddDate(0, 0, t), productID, SyntheticDemand(t), SyntheticInventory(t))
		if err != nil {
			panic(err)
		}
		observations = append(observations, obs)
	}
	return observations
}

// BuildReferenceObservations builds the 62 day synthetic series
func BuildReferenceObservations() []*entities.Observation {
	return BuildObservations(ReferenceProduct, ReferenceStart, ReferenceDays)
}

// BuildReferenceSeries builds the synthetic series as a DemandSeries
func BuildReferenceSeries() *entities.DemandSeries {
	observations := BuildReferenceObservations()
	values := make([]entities.Observation, len(observations))
	for i, obs := range observations {
		values[i] = *obs
	}
	series, err := entities.NewDemandSeries(values)
	if err != nil {
		panic(err)
	}
	return series
}

// BuildReferenceRepository loads the synthetic series into a memory repository
func BuildReferenceRepository() *memory.ObservationRepository {
	repo := memory.NewObservationRepository()
	if err := repo.LoadObservations(BuildReferenceObservations()); err != nil {
		panic(err)
	}
	return repo
}

// ObservationsCSV renders observations in the loader's CSV format
func ObservationsCSV(observations []*entities.Observation) string {
	var b strings.Builder
	b.WriteString("date,product_id,demand,inventory\n")
	for _, obs := range observations {
		fmt.Fprintf(&b, "%s,%s,%g,%g\n", obs.Date.Format(entities.DateLayout), obs.ProductID, obs.Demand, obs.Inventory)
	}
	return b.String()
}
