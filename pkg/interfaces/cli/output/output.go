package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vsinha/invplan/pkg/application/dto"
	"github.com/vsinha/invplan/pkg/domain/entities"
	"github.com/vsinha/invplan/pkg/domain/services/diagnostics"
	"github.com/vsinha/invplan/pkg/domain/services/stationarity"
)

const (
	forecastFile = "forecast.csv"
	policyFile   = "policy.csv"
	jsonFile     = "plan.json"
	textFile     = "plan.txt"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	// Writer receives console output; nil means stdout
	Writer io.Writer
}

func (c Config) writer() io.Writer {
	if c.Writer == nil {
		return os.Stdout
	}
	return c.Writer
}

// Generate creates output in the specified format
func Generate(result *dto.PlanningResult, config Config) error {
	switch config.Format {
	case "text":
		return generateTextOutput(result, config)
	case "json":
		return generateJSONOutput(result, config)
	case "csv":
		return generateCSVOutput(result, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// Document is the JSON rendering of a planning run
type Document struct {
	RunID         string                   `json:"runId"`
	ProductID     entities.ProductID       `json:"productId"`
	Forecast      []ForecastRow            `json:"forecast"`
	OrderQuantity entities.Quantity        `json:"orderQuantity"`
	ReorderPoint  float64                  `json:"reorderPoint"`
	SafetyStock   float64                  `json:"safetyStock"`
	TotalCost     string                   `json:"totalCost"`
	MeanDemand    float64                  `json:"meanDemand"`
	StdDemand     float64                  `json:"stdDemand"`
	ZScore        float64                  `json:"zScore"`
	Warnings      []entities.PolicyWarning `json:"warnings,omitempty"`
	Inputs        InputsDoc                `json:"inputs"`
	Model         dto.ModelSummary         `json:"model"`
	Diagnostics   *dto.DiagnosticsReport   `json:"diagnostics,omitempty"`
}

// ForecastRow is one forecast day
type ForecastRow struct {
	Date     string  `json:"date"`
	Demand   int64   `json:"demand"`
	Estimate float64 `json:"estimate"`
	StdErr   float64 `json:"stdErr"`
	Lower95  float64 `json:"lower95"`
	Upper95  float64 `json:"upper95"`
}

// InputsDoc echoes the business parameters used for the policy
type InputsDoc struct {
	InitialInventory float64 `json:"initialInventory"`
	LeadTimeDays     int     `json:"leadTimeDays"`
	ServiceLevel     float64 `json:"serviceLevel"`
	HoldingCost      string  `json:"holdingCost"`
	StockoutCost     string  `json:"stockoutCost"`
}

// NewDocument flattens a planning result into its JSON document
func NewDocument(result *dto.PlanningResult) Document {
	return Document{
		RunID:         result.RunID,
		ProductID:     result.ProductID,
		Forecast:      forecastRows(result.Forecast),
		OrderQuantity: result.Policy.OrderQuantity,
		ReorderPoint:  result.Policy.ReorderPoint,
		SafetyStock:   result.Policy.SafetyStock,
		TotalCost:     result.Policy.TotalCost.StringFixed(2),
		MeanDemand:    result.Policy.MeanDemand,
		StdDemand:     result.Policy.StdDemand,
		ZScore:        result.Policy.ZScore,
		Warnings:      result.Policy.Warnings,
		Inputs: InputsDoc{
			InitialInventory: result.Inputs.InitialInventory,
			LeadTimeDays:     result.Inputs.LeadTimeDays,
			ServiceLevel:     result.Inputs.ServiceLevel,
			HoldingCost:      result.Inputs.HoldingCost.String(),
			StockoutCost:     result.Inputs.StockoutCost.String(),
		},
		Model:       result.Model,
		Diagnostics: result.Diagnostics,
	}
}

func forecastRows(forecast *entities.ForecastResult) []ForecastRow {
	rows := make([]ForecastRow, 0, forecast.Horizon())
	for _, p := range forecast.Points {
		rows = append(rows, ForecastRow{
			Date:     formatDate(p.Date),
			Demand:   p.Demand,
			Estimate: p.Estimate,
			StdErr:   p.StdErr,
			Lower95:  p.Lower95,
			Upper95:  p.Upper95,
		})
	}
	return rows
}

// generateTextOutput creates human-readable text output
func generateTextOutput(result *dto.PlanningResult, config Config) error {
	var b strings.Builder
	writeTextReport(&b, result)

	if _, err := io.WriteString(config.writer(), b.String()); err != nil {
		return err
	}

	if config.OutputDir != "" {
		filename, err := writeFile(config.OutputDir, textFile, []byte(b.String()))
		if err != nil {
			return err
		}
		if config.Verbose {
			fmt.Fprintf(config.writer(), "💾 Report saved to: %s\n", filename)
		}
	}

	return nil
}

func writeTextReport(w io.Writer, result *dto.PlanningResult) {
	fmt.Fprintf(w, "📊 Inventory Plan: %s\n", result.ProductID)
	fmt.Fprintf(w, "==========================\n\n")

	fmt.Fprintf(w, "Run: %s\n", result.RunID)
	fmt.Fprintf(w, "History: %s to %s (%d days)\n",
		formatDate(result.HistoryStart), formatDate(result.HistoryEnd), result.Observations)
	fmt.Fprintf(w, "Model: SARIMA%s%s\n", result.Model.Order, result.Model.SeasonalOrder)
	fmt.Fprintf(w, "Fit Time: %v\n\n", result.Model.FitDuration)

	if result.Diagnostics != nil {
		fmt.Fprintf(w, "🔍 Stationarity (ADF):\n")
		fmt.Fprintf(w, "%-12s %-10s %-10s %-5s %-10s\n", "Series", "Statistic", "p-value", "Lag", "Stationary")
		fmt.Fprintf(w, "%-12s %-10s %-10s %-5s %-10s\n", "------------", "----------", "----------", "-----", "----------")
		writeStationarityRow(w, "raw", result.Diagnostics.RawStationarity)
		writeStationarityRow(w, "differenced", result.Diagnostics.DifferencedStationarity)
		fmt.Fprintln(w)

		fmt.Fprintf(w, "📈 Correlograms (lags outside ±band):\n")
		writeCorrelogramRow(w, "raw ACF", result.Diagnostics.RawACF)
		writeCorrelogramRow(w, "raw PACF", result.Diagnostics.RawPACF)
		writeCorrelogramRow(w, "diff ACF", result.Diagnostics.DifferencedACF)
		writeCorrelogramRow(w, "diff PACF", result.Diagnostics.DifferencedPACF)
		for _, warning := range result.Diagnostics.Warnings {
			fmt.Fprintf(w, "  ⚠️  %s\n", warning)
		}
		fmt.Fprintln(w)
	}

	d := result.Model.Diagnostics
	fmt.Fprintf(w, "🧮 Model Fit:\n")
	fmt.Fprintf(w, "  AR: %s  Seasonal AR: %s\n", formatFloats(result.Model.Coefficients.AR), formatFloats(result.Model.Coefficients.SeasonalAR))
	fmt.Fprintf(w, "  MA: %s  Seasonal MA: %s\n", formatFloats(result.Model.Coefficients.MA), formatFloats(result.Model.Coefficients.SeasonalMA))
	fmt.Fprintf(w, "  sigma2: %.4f  AIC: %.2f  BIC: %.2f  residuals: %d  iterations: %d\n\n",
		d.Sigma2, d.AIC, d.BIC, d.NResiduals, d.Iterations)

	fmt.Fprintf(w, "📋 Forecast:\n")
	fmt.Fprintf(w, "%-12s %-8s %-10s %-10s %-10s\n", "Date", "Demand", "Estimate", "Lower 95", "Upper 95")
	fmt.Fprintf(w, "%-12s %-8s %-10s %-10s %-10s\n", "------------", "--------", "----------", "----------", "----------")
	for _, p := range result.Forecast.Points {
		fmt.Fprintf(w, "%-12s %-8d %-10.2f %-10.2f %-10.2f\n",
			formatDate(p.Date), p.Demand, p.Estimate, p.Lower95, p.Upper95)
	}
	fmt.Fprintln(w)

	pol := result.Policy
	fmt.Fprintf(w, "📦 Inventory Policy:\n")
	fmt.Fprintf(w, "  Mean Demand: %.2f  Std Demand: %.2f  z: %.4f\n", pol.MeanDemand, pol.StdDemand, pol.ZScore)
	fmt.Fprintf(w, "  Optimal Order Quantity: %d units\n", pol.OrderQuantity)
	fmt.Fprintf(w, "  Reorder Point: %.2f units\n", pol.ReorderPoint)
	fmt.Fprintf(w, "  Safety Stock: %.2f units\n", pol.SafetyStock)
	fmt.Fprintf(w, "  Total Inventory Cost: %s\n", pol.TotalCost.StringFixed(2))

	if len(pol.Warnings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "⚠️  Warnings:\n")
		for _, warning := range pol.Warnings {
			fmt.Fprintf(w, "  %s\n", warning)
		}
	}
}

func writeStationarityRow(w io.Writer, name string, r *stationarity.Result) {
	if r == nil {
		return
	}
	fmt.Fprintf(w, "%-12s %-10.4f %-10.4f %-5d %-10t\n", name, r.Statistic, r.PValue, r.UsedLag, r.IsStationary)
}

func writeCorrelogramRow(w io.Writer, name string, c diagnostics.Correlogram) {
	if len(c.Values) == 0 {
		return
	}
	lags := c.Significant()
	if len(lags) == 0 {
		fmt.Fprintf(w, "  %-10s none (band %.3f)\n", name, c.Band)
		return
	}
	fmt.Fprintf(w, "  %-10s %v (band %.3f)\n", name, lags, c.Band)
}

// generateJSONOutput creates JSON output
func generateJSONOutput(result *dto.PlanningResult, config Config) error {
	jsonData, err := json.MarshalIndent(NewDocument(result), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		_, err := fmt.Fprintln(config.writer(), string(jsonData))
		return err
	}

	filename, err := writeFile(config.OutputDir, jsonFile, jsonData)
	if err != nil {
		return err
	}
	if config.Verbose {
		fmt.Fprintf(config.writer(), "💾 JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput creates CSV output
func generateCSVOutput(result *dto.PlanningResult, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	forecastPath := filepath.Join(config.OutputDir, forecastFile)
	if err := writeCSVFile(forecastPath, forecastRecords(result.Forecast)); err != nil {
		return fmt.Errorf("failed to write forecast CSV: %w", err)
	}

	policyPath := filepath.Join(config.OutputDir, policyFile)
	if err := writeCSVFile(policyPath, policyRecords(result)); err != nil {
		return fmt.Errorf("failed to write policy CSV: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.writer(), "💾 CSV results saved to:\n")
		fmt.Fprintf(config.writer(), "  Forecast: %s\n", forecastPath)
		fmt.Fprintf(config.writer(), "  Policy: %s\n", policyPath)
	}

	return nil
}

func forecastRecords(forecast *entities.ForecastResult) [][]string {
	records := [][]string{{"date", "demand", "estimate", "std_err", "lower_95", "upper_95"}}
	for _, p := range forecast.Points {
		records = append(records, []string{
			formatDate(p.Date),
			strconv.FormatInt(p.Demand, 10),
			formatFloat(p.Estimate),
			formatFloat(p.StdErr),
			formatFloat(p.Lower95),
			formatFloat(p.Upper95),
		})
	}
	return records
}

func policyRecords(result *dto.PlanningResult) [][]string {
	pol := result.Policy
	warnings := make([]string, len(pol.Warnings))
	for i, w := range pol.Warnings {
		warnings[i] = string(w)
	}

	return [][]string{
		{"metric", "value"},
		{"product_id", string(result.ProductID)},
		{"mean_demand", formatFloat(pol.MeanDemand)},
		{"std_demand", formatFloat(pol.StdDemand)},
		{"z_score", formatFloat(pol.ZScore)},
		{"order_quantity", strconv.FormatInt(int64(pol.OrderQuantity), 10)},
		{"reorder_point", formatFloat(pol.ReorderPoint)},
		{"safety_stock", formatFloat(pol.SafetyStock)},
		{"total_cost", pol.TotalCost.StringFixed(2)},
		{"warnings", strings.Join(warnings, ";")},
	}
}

func writeCSVFile(filename string, records [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(records); err != nil {
		return err
	}
	return file.Close()
}

func writeFile(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(dir, name)
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return filename, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(entities.DateLayout)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func formatFloats(values []float64) string {
	if len(values) == 0 {
		return "-"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', 4, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
