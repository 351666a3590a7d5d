package events

import (
	"time"

	"github.com/vsinha/invplan/pkg/domain/entities"
)

const (
	ObservationsLoadedEvent  = "observations.loaded"
	StationarityCheckedEvent = "stationarity.checked"
	ModelFittedEvent         = "model.fitted"
	ForecastGeneratedEvent   = "forecast.generated"
	PolicyComputedEvent      = "policy.computed"
)

// AllPlanningEvents lists every event type a planning run emits, in order
var AllPlanningEvents = []string{
	ObservationsLoadedEvent,
	StationarityCheckedEvent,
	ModelFittedEvent,
	ForecastGeneratedEvent,
	PolicyComputedEvent,
}

type ObservationsLoaded struct {
	ProductID    entities.ProductID `json:"product_id"`
	Observations int                `json:"observations"`
	FirstDate    time.Time          `json:"first_date"`
	LastDate     time.Time          `json:"last_date"`
}

type StationarityChecked struct {
	Series       string  `json:"series"`
	Statistic    float64 `json:"statistic"`
	PValue       float64 `json:"p_value"`
	IsStationary bool    `json:"is_stationary"`
}

type ModelFitted struct {
	Order         entities.ModelOrder    `json:"order"`
	SeasonalOrder entities.SeasonalOrder `json:"seasonal_order"`
	Sigma2        float64                `json:"sigma2"`
	AIC           float64                `json:"aic"`
	Duration      time.Duration          `json:"duration"`
}

type ForecastGenerated struct {
	Horizon int     `json:"horizon"`
	Demands []int64 `json:"demands"`
}

type PolicyComputed struct {
	OrderQuantity entities.Quantity        `json:"order_quantity"`
	ReorderPoint  float64                  `json:"reorder_point"`
	SafetyStock   float64                  `json:"safety_stock"`
	TotalCost     string                   `json:"total_cost"`
	Warnings      []entities.PolicyWarning `json:"warnings,omitempty"`
}
