package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"k8s.io/klog/v2"

	"github.com/vsinha/invplan/pkg/interfaces/cli/commands"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "generate" {
		runGenerate(os.Args[2:])
		return
	}

	klog.InitFlags(nil)

	// Command line flags
	var (
		dataFile      = flag.String("data", "", "Path to daily observations CSV file")
		productID     = flag.String("product", "", "Product to plan")
		configFile    = flag.String("config", "", "Path to YAML configuration file")
		order         = flag.String("order", "1,1,1", "Non-seasonal order p,d,q")
		seasonalOrder = flag.String("seasonal-order", "1,1,1,2", "Seasonal order P,D,Q,s")
		horizon       = flag.Int("horizon", 10, "Number of days to forecast")
		leadTime      = flag.Int("lead-time", 2, "Replenishment lead time in days")
		serviceLevel  = flag.Float64("service-level", 0.95, "Target service level in (0,1)")
		holdingCost   = flag.String("holding-cost", "0.1", "Holding cost per unit")
		stockoutCost  = flag.String("stockout-cost", "10", "Stockout cost per unit short")
		initialInv    = flag.Float64(
			"initial-inventory",
			-1,
			"Initial inventory; negative uses the last observed inventory",
		)
		outputDir       = flag.String("output", "", "Output directory for results (optional)")
		format          = flag.String("format", "text", "Output format: text, json, csv")
		metricsFile     = flag.String("metrics-file", "", "Write Prometheus metrics textfile")
		verbose         = flag.Bool("verbose", false, "Enable verbose output")
		skipDiagnostics = flag.Bool("skip-diagnostics", false, "Skip stationarity tests and correlograms")
		help            = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()
	defer klog.Flush()

	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	// Create command configuration
	config := commands.Config{
		DataFile:         *dataFile,
		ProductID:        *productID,
		ConfigFile:       *configFile,
		Order:            *order,
		SeasonalOrder:    *seasonalOrder,
		Horizon:          *horizon,
		LeadTimeDays:     *leadTime,
		ServiceLevel:     *serviceLevel,
		HoldingCost:      *holdingCost,
		StockoutCost:     *stockoutCost,
		InitialInventory: *initialInv,
		OutputDir:        *outputDir,
		Format:           *format,
		MetricsFile:      *metricsFile,
		Verbose:          *verbose,
		SkipDiagnostics:  *skipDiagnostics,
		Help:             *help,
		SetFlags:         setFlags,
	}

	// Create and execute command
	cmd := commands.NewPlanCommand(config)
	ctx := context.Background()

	if err := cmd.Execute(ctx); err != nil {
		klog.Flush()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	var (
		output     = fs.String("output", "", "Observations CSV to write")
		products   = fs.Int("products", 1, "Number of products")
		days       = fs.Int("days", 62, "Days per product")
		start      = fs.String("start", "2023-06-01", "First date, YYYY-MM-DD")
		baseDemand = fs.Float64("base-demand", 120, "Mean daily demand")
		weekly     = fs.Float64("weekly", 10, "Day-of-week amplitude")
		trend      = fs.Float64("trend", 0, "Demand added per day")
		noise      = fs.Float64("noise", 5, "Daily noise standard deviation")
		inventory  = fs.Float64("inventory", 45, "Starting inventory in days of base demand")
		seed       = fs.Int64("seed", 0, "Random seed, 0 for time based")
		verbose    = fs.Bool("verbose", false, "Enable verbose output")
		help       = fs.Bool("help", false, "Show help message")
	)
	fs.Parse(args)

	cmd := commands.NewGenerateCommand(commands.GenerateConfig{
		Products:        *products,
		Days:            *days,
		Start:           *start,
		BaseDemand:      *baseDemand,
		WeeklyAmplitude: *weekly,
		Trend:           *trend,
		Noise:           *noise,
		Inventory:       *inventory,
		OutputFile:      *output,
		Seed:            *seed,
		Help:            *help,
		Verbose:         *verbose,
	})

	if err := cmd.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
