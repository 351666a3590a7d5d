package repositories

import "github.com/vsinha/invplan/pkg/domain/entities"

// ObservationRepository provides access to daily demand observations
type ObservationRepository interface {
	LoadObservations(observations []*entities.Observation) error
	GetSeries(productID entities.ProductID) (*entities.DemandSeries, error)
	GetProductIDs() []entities.ProductID
}
