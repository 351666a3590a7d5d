package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"k8s.io/klog/v2"

	"github.com/vsinha/invplan/pkg/application/services/orchestration"
	"github.com/vsinha/invplan/pkg/application/services/policy"
	"github.com/vsinha/invplan/pkg/domain/entities"
	"github.com/vsinha/invplan/pkg/infrastructure/config"
	"github.com/vsinha/invplan/pkg/infrastructure/events"
	"github.com/vsinha/invplan/pkg/infrastructure/metrics"
	"github.com/vsinha/invplan/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/invplan/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/invplan/pkg/interfaces/cli/output"
)

// Config holds configuration for the plan command. Values only override the
// YAML file when their flag name is in SetFlags.
type Config struct {
	DataFile         string
	ProductID        string
	ConfigFile       string
	Order            string
	SeasonalOrder    string
	Horizon          int
	LeadTimeDays     int
	ServiceLevel     float64
	HoldingCost      string
	StockoutCost     string
	InitialInventory float64
	OutputDir        string
	Format           string
	MetricsFile      string
	Verbose          bool
	SkipDiagnostics  bool
	Help             bool

	// SetFlags names the flags given explicitly on the command line
	SetFlags map[string]bool
	// Stdout receives console output; nil means os.Stdout
	Stdout io.Writer
}

// PlanCommand forecasts demand for one product and derives its inventory policy
type PlanCommand struct {
	config Config
	out    io.Writer
}

// NewPlanCommand creates a new plan command with the given configuration
func NewPlanCommand(config Config) *PlanCommand {
	out := config.Stdout
	if out == nil {
		out = os.Stdout
	}
	return &PlanCommand{
		config: config,
		out:    out,
	}
}

// Execute runs the plan command
func (c *PlanCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	settings, err := c.resolveSettings()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	if err := c.validateInputs(settings); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	inputs, useLastInventory, err := settings.Policy.PolicyInputs()
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if c.config.Verbose {
		c.printHeader(settings)
		fmt.Fprintln(c.out, "📂 Loading observations from CSV...")
	}

	observations, err := csv.NewLoader().LoadObservations(settings.Data)
	if err != nil {
		return fmt.Errorf("error loading observations: %w", err)
	}

	observationRepo := memory.NewObservationRepository()
	if err := observationRepo.LoadObservations(observations); err != nil {
		return fmt.Errorf("failed to load observations into repository: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintf(c.out, "✅ Data loaded successfully:\n")
		fmt.Fprintf(c.out, "  Observations: %d\n", len(observations))
		fmt.Fprintf(c.out, "  Products: %d\n", len(observationRepo.GetProductIDs()))
		fmt.Fprintln(c.out)
	}

	eventStore := events.NewInMemoryEventStore()
	if err := eventStore.Subscribe(events.AllPlanningEvents, events.NewLogHandler(1)); err != nil {
		return fmt.Errorf("failed to subscribe event log: %w", err)
	}

	recorder := metrics.NewRecorder()
	orchestrator := orchestration.NewPlanningOrchestrator(
		observationRepo,
		policy.NewService(),
		eventStore,
		recorder,
	)

	if c.config.Verbose {
		fmt.Fprintf(c.out, "🔄 Fitting SARIMA%s%s and forecasting %d days...\n",
			settings.Model.Order, settings.Model.SeasonalOrder, settings.Model.Horizon)
	}

	result, err := orchestrator.RunPlanning(ctx, orchestration.PlanningConfig{
		ProductID:        entities.ProductID(settings.ProductID),
		Order:            settings.Model.Order,
		SeasonalOrder:    settings.Model.SeasonalOrder,
		Horizon:          settings.Model.Horizon,
		Policy:           inputs,
		UseLastInventory: useLastInventory,
		SkipDiagnostics:  c.config.SkipDiagnostics,
	})
	if err != nil {
		return fmt.Errorf("error running planning: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintf(c.out, "✅ Model fitted in %v\n\n", result.Model.FitDuration)
	}

	err = output.Generate(result, output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
		Writer:    c.out,
	})
	if err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	if c.config.MetricsFile != "" {
		if err := recorder.WriteTextfile(c.config.MetricsFile); err != nil {
			return fmt.Errorf("error writing metrics: %w", err)
		}
		if c.config.Verbose {
			fmt.Fprintf(c.out, "💾 Metrics saved to: %s\n", c.config.MetricsFile)
		}
	}

	klog.V(1).InfoS("Plan command finished", "run", result.RunID, "product", result.ProductID)

	if c.config.Verbose {
		fmt.Fprintln(c.out, "🏁 Inventory planning complete!")
	}

	return nil
}

// resolveSettings layers explicitly set flags over the YAML file, which is
// itself layered over the defaults.
func (c *PlanCommand) resolveSettings() (config.File, error) {
	settings := config.Default()
	if c.config.ConfigFile != "" {
		loaded, err := config.Load(c.config.ConfigFile)
		if err != nil {
			return config.File{}, err
		}
		settings = loaded
	}

	set := func(name string) bool { return c.config.SetFlags[name] }

	if set("data") || settings.Data == "" {
		settings.Data = c.config.DataFile
	}
	if set("product") || settings.ProductID == "" {
		settings.ProductID = c.config.ProductID
	}
	if set("order") {
		order, err := ParseModelOrder(c.config.Order)
		if err != nil {
			return config.File{}, err
		}
		settings.Model.Order = order
	}
	if set("seasonal-order") {
		seasonal, err := ParseSeasonalOrder(c.config.SeasonalOrder)
		if err != nil {
			return config.File{}, err
		}
		settings.Model.SeasonalOrder = seasonal
	}
	if set("horizon") {
		settings.Model.Horizon = c.config.Horizon
	}
	if set("lead-time") {
		settings.Policy.LeadTimeDays = c.config.LeadTimeDays
	}
	if set("service-level") {
		settings.Policy.ServiceLevel = c.config.ServiceLevel
	}
	if set("holding-cost") {
		settings.Policy.HoldingCost = c.config.HoldingCost
	}
	if set("stockout-cost") {
		settings.Policy.StockoutCost = c.config.StockoutCost
	}
	if set("initial-inventory") {
		if c.config.InitialInventory < 0 {
			settings.Policy.InitialInventory = nil
		} else {
			inv := c.config.InitialInventory
			settings.Policy.InitialInventory = &inv
		}
	}

	return settings, nil
}

// validateInputs validates the resolved settings
func (c *PlanCommand) validateInputs(settings config.File) error {
	if settings.Data == "" {
		return fmt.Errorf("must specify an observations file with -data or in the config file")
	}
	if _, err := os.Stat(settings.Data); os.IsNotExist(err) {
		return fmt.Errorf("observations file not found: %s", settings.Data)
	}
	if err := entities.ValidateOrders(settings.Model.Order, settings.Model.SeasonalOrder); err != nil {
		return err
	}
	switch c.config.Format {
	case "text", "json", "csv":
	default:
		return fmt.Errorf("unsupported output format: %s", c.config.Format)
	}
	return nil
}

// ParseModelOrder parses "p,d,q"
func ParseModelOrder(s string) (entities.ModelOrder, error) {
	terms, err := parseTerms(s, 3)
	if err != nil {
		return entities.ModelOrder{}, err
	}
	return entities.ModelOrder{P: terms[0], D: terms[1], Q: terms[2]}, nil
}

// ParseSeasonalOrder parses "P,D,Q,s"
func ParseSeasonalOrder(s string) (entities.SeasonalOrder, error) {
	terms, err := parseTerms(s, 4)
	if err != nil {
		return entities.SeasonalOrder{}, err
	}
	return entities.SeasonalOrder{P: terms[0], D: terms[1], Q: terms[2], S: terms[3]}, nil
}

func parseTerms(s string, n int) ([]int, error) {
	parts := strings.Split(strings.Trim(strings.TrimSpace(s), "()"), ",")
	if len(parts) != n {
		return nil, fmt.Errorf("%w: expected %d comma-separated terms, got %q", entities.ErrInvalidOrder, n, s)
	}
	terms := make([]int, n)
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid term %q in %q", entities.ErrInvalidOrder, part, s)
		}
		terms[i] = v
	}
	return terms, nil
}

// printHeader prints the command header information
func (c *PlanCommand) printHeader(settings config.File) {
	fmt.Fprintf(c.out, "🚀 Inventory Planning CLI\n")
	fmt.Fprintf(c.out, "Observations: %s\n", settings.Data)
	if settings.ProductID != "" {
		fmt.Fprintf(c.out, "Product: %s\n", settings.ProductID)
	}
	if c.config.ConfigFile != "" {
		fmt.Fprintf(c.out, "Config file: %s\n", c.config.ConfigFile)
	}
	fmt.Fprintf(c.out, "Model: SARIMA%s%s, horizon %d\n",
		settings.Model.Order, settings.Model.SeasonalOrder, settings.Model.Horizon)
	fmt.Fprintf(c.out, "Policy: lead time %d days, service level %g, holding %s, stockout %s\n",
		settings.Policy.LeadTimeDays, settings.Policy.ServiceLevel,
		settings.Policy.HoldingCost, settings.Policy.StockoutCost)
	fmt.Fprintf(c.out, "Output format: %s\n", c.config.Format)
	if c.config.OutputDir != "" {
		fmt.Fprintf(c.out, "Output directory: %s\n", c.config.OutputDir)
	}
	fmt.Fprintln(c.out)
}

// showHelp displays the help message
func (c *PlanCommand) showHelp() {
	fmt.Fprintf(c.out, `Inventory Planning CLI - SARIMA demand forecasting and inventory policy

USAGE:
    invplan -data <file> [options]
    invplan -config <file> [options]
    invplan generate -output <file> [options]   # see invplan generate -help

OPTIONS:
    -data <file>              Daily observations CSV (date,product_id,demand,inventory)
    -product <id>             Product to plan (required when the file has several)
    -config <file>            YAML configuration; explicit flags override it
    -order <p,d,q>            Non-seasonal order (default: 1,1,1)
    -seasonal-order <P,D,Q,s> Seasonal order (default: 1,1,1,2)
    -horizon <n>              Forecast days (default: 10)
    -lead-time <n>            Replenishment lead time in days (default: 2)
    -service-level <p>        Target service level in (0,1) (default: 0.95)
    -holding-cost <c>         Holding cost per unit (default: 0.1)
    -stockout-cost <c>        Stockout cost per unit short (default: 10)
    -initial-inventory <n>    Starting inventory; negative uses the last observation (default: -1)
    -output <dir>             Output directory for results (optional)
    -format <fmt>             Output format: text, json, csv (default: text)
    -metrics-file <file>      Write Prometheus gauges for the run
    -skip-diagnostics         Skip the ADF tests and correlograms
    -verbose                  Enable verbose output
    -v <level>                klog verbosity
    -help                     Show this help message

CONFIG FILE:
    product_id: SKU-1
    data: data/demand.csv
    model:
      order: {p: 1, d: 1, q: 1}
      seasonal_order: {p: 1, d: 1, q: 1, s: 2}
      horizon: 10
    policy:
      lead_time_days: 2
      service_level: 0.95
      holding_cost: "0.1"
      stockout_cost: "10"
      initial_inventory: 5500

EXAMPLES:
    # Plan with the reference model and policy
    invplan -data data/demand.csv -verbose

    # Weekly seasonality, 14 day forecast, JSON to a directory
    invplan -data data/demand.csv -seasonal-order 1,1,1,7 -horizon 14 -format json -output results/

    # YAML config with a one-off lead time override
    invplan -config plan.yaml -lead-time 5 -metrics-file results/invplan.prom
`)
}
