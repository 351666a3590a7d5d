// Package metrics exposes planning results as Prometheus gauges. A batch run
// writes them to a node-exporter textfile instead of serving them.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vsinha/invplan/pkg/domain/entities"
)

const namespace = "invplan"

// Recorder holds the gauges of one planning run on a private registry
type Recorder struct {
	registry *prometheus.Registry

	fitDuration    *prometheus.GaugeVec
	fitSigma2      *prometheus.GaugeVec
	forecastDemand *prometheus.GaugeVec
	demandMean     *prometheus.GaugeVec
	demandStd      *prometheus.GaugeVec
	orderQuantity  *prometheus.GaugeVec
	reorderPoint   *prometheus.GaugeVec
	safetyStock    *prometheus.GaugeVec
	totalCost      *prometheus.GaugeVec
	warnings       *prometheus.GaugeVec
}

// NewRecorder creates a recorder with its own registry
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	gauge := func(name, help string, labels ...string) *prometheus.GaugeVec {
		return factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      name,
				Help:      help,
			},
			append([]string{"product"}, labels...),
		)
	}

	return &Recorder{
		registry:       registry,
		fitDuration:    gauge("model_fit_duration_seconds", "Wall time spent fitting the forecasting model"),
		fitSigma2:      gauge("model_sigma2", "Innovation variance of the fitted model"),
		forecastDemand: gauge("forecast_demand_units", "Forecast daily demand by step ahead", "step"),
		demandMean:     gauge("forecast_demand_mean_units", "Mean of the forecast daily demand"),
		demandStd:      gauge("forecast_demand_std_units", "Sample standard deviation of the forecast daily demand"),
		orderQuantity:  gauge("order_quantity_units", "Recommended order quantity"),
		reorderPoint:   gauge("reorder_point_units", "Inventory level that triggers a new order"),
		safetyStock:    gauge("safety_stock_units", "Lead-time variability buffer"),
		totalCost:      gauge("total_cost", "Holding plus expected stockout cost"),
		warnings:       gauge("policy_warning", "Set to 1 for each warning raised on the policy", "warning"),
	}
}

// Registry returns the registry the gauges are registered on
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveFit records the fit duration and innovation variance
func (r *Recorder) ObserveFit(productID entities.ProductID, duration time.Duration, sigma2 float64) {
	r.fitDuration.WithLabelValues(string(productID)).Set(duration.Seconds())
	r.fitSigma2.WithLabelValues(string(productID)).Set(sigma2)
}

// ObserveForecast records each forecast step
func (r *Recorder) ObserveForecast(forecast *entities.ForecastResult) {
	for i, point := range forecast.Points {
		r.forecastDemand.WithLabelValues(string(forecast.ProductID), strconv.Itoa(i+1)).Set(float64(point.Demand))
	}
}

// ObservePolicy records the policy outputs and raised warnings
func (r *Recorder) ObservePolicy(productID entities.ProductID, result *entities.PolicyResult) {
	product := string(productID)
	r.demandMean.WithLabelValues(product).Set(result.MeanDemand)
	r.demandStd.WithLabelValues(product).Set(result.StdDemand)
	r.orderQuantity.WithLabelValues(product).Set(float64(result.OrderQuantity))
	r.reorderPoint.WithLabelValues(product).Set(result.ReorderPoint)
	r.safetyStock.WithLabelValues(product).Set(result.SafetyStock)
	r.totalCost.WithLabelValues(product).Set(result.TotalCost.InexactFloat64())
	for _, w := range result.Warnings {
		r.warnings.WithLabelValues(product, string(w)).Set(1)
	}
}

// WriteTextfile writes every gauge in the text exposition format
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
