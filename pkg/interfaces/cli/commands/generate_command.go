package commands

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vsinha/invplan/pkg/domain/entities"
)

// GenerateConfig holds configuration for synthetic demand generation
type GenerateConfig struct {
	Products        int     // Number of products to generate
	Days            int     // Length of each daily series
	Start           string  // First date, YYYY-MM-DD
	BaseDemand      float64 // Mean daily demand
	WeeklyAmplitude float64 // Amplitude of the day-of-week cycle
	Trend           float64 // Demand added per day
	Noise           float64 // Standard deviation of the daily noise
	Inventory       float64 // Starting inventory, in days of base demand
	OutputFile      string  // Observations CSV to write
	Seed            int64   // Random seed for reproducible generation
	Help            bool    // Show help
	Verbose         bool    // Verbose output
	Stdout          io.Writer
}

// GenerateCommand writes a synthetic observations file the plan command can read
type GenerateCommand struct {
	config GenerateConfig
	rand   *rand.Rand
	out    io.Writer
}

// NewGenerateCommand creates a new generate command
func NewGenerateCommand(config GenerateConfig) *GenerateCommand {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	out := config.Stdout
	if out == nil {
		out = os.Stdout
	}

	return &GenerateCommand{
		config: config,
		rand:   rand.New(rand.NewSource(seed)),
		out:    out,
	}
}

// Execute runs the generate command
func (cmd *GenerateCommand) Execute(ctx context.Context) error {
	if cmd.config.Help {
		cmd.printHelp()
		return nil
	}

	start, err := cmd.validate()
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if cmd.config.Verbose {
		fmt.Fprintf(cmd.out,
			"🔧 Generating %d products x %d days from %s, base demand %.1f\n",
			cmd.config.Products,
			cmd.config.Days,
			cmd.config.Start,
			cmd.config.BaseDemand,
		)
		fmt.Fprintf(cmd.out, "📁 Output file: %s\n", cmd.config.OutputFile)
		fmt.Fprintf(cmd.out, "🎲 Random seed: %d\n", cmd.config.Seed)
	}

	records := [][]string{{"date", "product_id", "demand", "inventory"}}
	for p := 1; p <= cmd.config.Products; p++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		productID := entities.ProductID(fmt.Sprintf("SKU-%d", p))
		for _, obs := range cmd.generateSeries(productID, start) {
			records = append(records, []string{
				obs.Date.Format(entities.DateLayout),
				string(obs.ProductID),
				strconv.FormatFloat(obs.Demand, 'f', -1, 64),
				strconv.FormatFloat(obs.Inventory, 'f', -1, 64),
			})
		}
	}

	if err := cmd.writeRecords(records); err != nil {
		return fmt.Errorf("failed to write observations: %w", err)
	}

	if cmd.config.Verbose {
		fmt.Fprintf(cmd.out, "✅ Wrote %d observations\n", len(records)-1)
	}

	return nil
}

func (cmd *GenerateCommand) validate() (time.Time, error) {
	if cmd.config.Products < 1 {
		return time.Time{}, fmt.Errorf("products must be at least 1, got %d", cmd.config.Products)
	}
	if cmd.config.Days < 1 {
		return time.Time{}, fmt.Errorf("days must be at least 1, got %d", cmd.config.Days)
	}
	if cmd.config.BaseDemand < 0 || cmd.config.Noise < 0 || cmd.config.Inventory < 0 {
		return time.Time{}, fmt.Errorf("base demand, noise and inventory cannot be negative")
	}
	if cmd.config.OutputFile == "" {
		return time.Time{}, fmt.Errorf("must specify an output file")
	}
	start, err := time.Parse(entities.DateLayout, cmd.config.Start)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start date %q (expected YYYY-MM-DD)", cmd.config.Start)
	}
	return start, nil
}

// generateSeries draws daily demand around a weekly cycle and simulates
// on-hand inventory that is replenished whenever it drops below a week of
// base demand.
func (cmd *GenerateCommand) generateSeries(productID entities.ProductID, start time.Time) []entities.Observation {
	inventory := math.Round(cmd.config.Inventory * cmd.config.BaseDemand)
	reorderLevel := 7 * cmd.config.BaseDemand
	replenishment := math.Round(cmd.config.Inventory * cmd.config.BaseDemand)

	// products differ in phase so their cycles do not line up
	phase := cmd.rand.Float64() * 2 * math.Pi

	series := make([]entities.Observation, 0, cmd.config.Days)
	for t := 0; t < cmd.config.Days; t++ {
		demand := cmd.config.BaseDemand +
			cmd.config.Trend*float64(t) +
			cmd.config.WeeklyAmplitude*math.Sin(2*math.Pi*float64(t)/7+phase) +
			cmd.config.Noise*cmd.rand.NormFloat64()
		demand = math.Max(0, math.Round(demand))

		inventory = math.Max(0, inventory-demand)
		if inventory < reorderLevel {
			inventory += replenishment
		}

		series = append(series, entities.Observation{
			Date:      start.AddDate(0, 0, t),
			ProductID: productID,
			Demand:    demand,
			Inventory: inventory,
		})
	}
	return series
}

func (cmd *GenerateCommand) writeRecords(records [][]string) error {
	if dir := filepath.Dir(cmd.config.OutputFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(cmd.config.OutputFile)
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

func (cmd *GenerateCommand) printHelp() {
	fmt.Fprintf(cmd.out, `Demand Generator - synthetic daily demand and inventory for invplan

USAGE:
    invplan generate -output <file> [options]

OPTIONS:
    -output <file>      Observations CSV to write (required)
    -products <n>       Number of products (default: 1)
    -days <n>           Days per product (default: 62)
    -start <date>       First date, YYYY-MM-DD (default: 2023-06-01)
    -base-demand <x>    Mean daily demand (default: 120)
    -weekly <x>         Day-of-week amplitude (default: 10)
    -trend <x>          Demand added per day (default: 0)
    -noise <x>          Daily noise standard deviation (default: 5)
    -inventory <x>      Starting inventory in days of base demand (default: 45)
    -seed <n>           Random seed, 0 for time based (default: 0)
    -verbose            Enable verbose output
    -help               Show this help message

EXAMPLES:
    # Reproducible two-month series
    invplan generate -output data/demand.csv -seed 42

    # Three trending products for a quarter
    invplan generate -output data/multi.csv -products 3 -days 90 -trend 0.5
`)
}
