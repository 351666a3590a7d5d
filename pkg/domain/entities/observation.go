package entities

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date layout used for all observation dates
const DateLayout = "2006-01-02"

// ProductID identifies the product a series belongs to
type ProductID string

// Observation is one day of demand and on-hand inventory for a product
type Observation struct {
	Date      time.Time
	ProductID ProductID
	Demand    float64
	Inventory float64
}

// NewObservation creates a validated Observation
func NewObservation(date time.Time, productID ProductID, demand, inventory float64) (*Observation, error) {
	if string(productID) == "" {
		return nil, fmt.Errorf("%w: product id cannot be empty", ErrDataLoad)
	}
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date cannot be empty", ErrDataLoad)
	}
	if demand < 0 {
		return nil, fmt.Errorf("%w: demand cannot be negative, got %g", ErrDataLoad, demand)
	}
	if inventory < 0 {
		return nil, fmt.Errorf("%w: inventory cannot be negative, got %g", ErrDataLoad, inventory)
	}

	return &Observation{
		Date:      truncateToDay(date),
		ProductID: productID,
		Demand:    demand,
		Inventory: inventory,
	}, nil
}

// DemandSeries is an immutable, contiguous daily sequence of observations
// for a single product.
type DemandSeries struct {
	productID    ProductID
	observations []Observation
}

// NewDemandSeries validates observations and builds a DemandSeries. Dates
// must be strictly ascending one day apart and every observation must carry
// the same product id.
func NewDemandSeries(observations []Observation) (*DemandSeries, error) {
	if len(observations) == 0 {
		return nil, fmt.Errorf("%w: series has no observations", ErrDataLoad)
	}

	productID := observations[0].ProductID
	copied := make([]Observation, len(observations))

	for i, obs := range observations {
		if obs.ProductID != productID {
			return nil, fmt.Errorf("%w: row %d: product id %q differs from %q",
				ErrDataLoad, i+1, obs.ProductID, productID)
		}
		if obs.Demand < 0 || obs.Inventory < 0 {
			return nil, fmt.Errorf("%w: row %d: demand and inventory must be non-negative",
				ErrDataLoad, i+1)
		}

		obs.Date = truncateToDay(obs.Date)
		if i > 0 {
			prev := copied[i-1].Date
			if !obs.Date.After(prev) {
				return nil, fmt.Errorf("%w: row %d: date %s is not after %s",
					ErrDataLoad, i+1, obs.Date.Format(DateLayout), prev.Format(DateLayout))
			}
			if expected := prev.AddDate(0, 0, 1); !obs.Date.Equal(expected) {
				return nil, fmt.Errorf("%w: row %d: gap in daily series, expected %s got %s",
					ErrDataLoad, i+1, expected.Format(DateLayout), obs.Date.Format(DateLayout))
			}
		}
		copied[i] = obs
	}

	return &DemandSeries{
		productID:    productID,
		observations: copied,
	}, nil
}

// ProductID returns the product the series belongs to
func (s *DemandSeries) ProductID() ProductID {
	return s.productID
}

// Len returns the number of observations
func (s *DemandSeries) Len() int {
	return len(s.observations)
}

// Observations returns a copy of the observations
func (s *DemandSeries) Observations() []Observation {
	out := make([]Observation, len(s.observations))
	copy(out, s.observations)
	return out
}

// Demands returns the demand column in date order
func (s *DemandSeries) Demands() []float64 {
	out := make([]float64, len(s.observations))
	for i, obs := range s.observations {
		out[i] = obs.Demand
	}
	return out
}

// FirstDate returns the date of the first observation
func (s *DemandSeries) FirstDate() time.Time {
	return s.observations[0].Date
}

// LastDate returns the date of the last observation
func (s *DemandSeries) LastDate() time.Time {
	return s.observations[len(s.observations)-1].Date
}

// LastInventory returns the on-hand inventory of the last observation
func (s *DemandSeries) LastInventory() float64 {
	return s.observations[len(s.observations)-1].Inventory
}

// DifferencePoint is one value of a first-differenced demand series
type DifferencePoint struct {
	Date  time.Time
	Value float64
}

// DifferencedSeries holds demand[i] - demand[i-1], dated by the later day
type DifferencedSeries []DifferencePoint

// Difference returns the first difference of the demand column. The result
// has one point fewer than the series.
func (s *DemandSeries) Difference() DifferencedSeries {
	if len(s.observations) < 2 {
		return DifferencedSeries{}
	}

	out := make(DifferencedSeries, 0, len(s.observations)-1)
	for i := 1; i < len(s.observations); i++ {
		out = append(out, DifferencePoint{
			Date:  s.observations[i].Date,
			Value: s.observations[i].Demand - s.observations[i-1].Demand,
		})
	}
	return out
}

// Values returns the differenced values in date order
func (d DifferencedSeries) Values() []float64 {
	out := make([]float64, len(d))
	for i, p := range d {
		out[i] = p.Value
	}
	return out
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
