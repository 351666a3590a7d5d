// Package config reads planning run configuration from YAML. Fields left out
// of the file keep the reference defaults.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vsinha/invplan/pkg/domain/entities"
)

// File is the on-disk run configuration
type File struct {
	ProductID string       `yaml:"product_id"`
	Data      string       `yaml:"data"`
	Model     ModelConfig  `yaml:"model"`
	Policy    PolicyConfig `yaml:"policy"`
}

// ModelConfig selects the forecasting model
type ModelConfig struct {
	Order         entities.ModelOrder    `yaml:"order"`
	SeasonalOrder entities.SeasonalOrder `yaml:"seasonal_order"`
	Horizon       int                    `yaml:"horizon"`
}

// PolicyConfig holds the business parameters. Cost rates are decimal
// strings; a missing initial inventory means the last observed inventory.
type PolicyConfig struct {
	LeadTimeDays     int      `yaml:"lead_time_days"`
	ServiceLevel     float64  `yaml:"service_level"`
	HoldingCost      string   `yaml:"holding_cost"`
	StockoutCost     string   `yaml:"stockout_cost"`
	InitialInventory *float64 `yaml:"initial_inventory,omitempty"`
}

// Default returns the reference configuration: SARIMA(1,1,1)(1,1,1,2), a
// ten-day horizon, two days lead time and a 95% service level.
func Default() File {
	return File{
		Model: ModelConfig{
			Order:         entities.ModelOrder{P: 1, D: 1, Q: 1},
			SeasonalOrder: entities.SeasonalOrder{P: 1, D: 1, Q: 1, S: 2},
			Horizon:       entities.DefaultHorizon,
		},
		Policy: PolicyConfig{
			LeadTimeDays: 2,
			ServiceLevel: 0.95,
			HoldingCost:  "0.1",
			StockoutCost: "10",
		},
	}
}

// Load reads a YAML file over the defaults
func Load(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := Read(f)
	if err != nil {
		return File{}, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Read decodes YAML over the defaults. Unknown keys are rejected.
func Read(r io.Reader) (File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return File{}, err
	}

	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return File{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return cfg, nil
}

// PolicyInputs converts the policy section into validated inputs. useLast
// reports that no initial inventory was configured.
func (p PolicyConfig) PolicyInputs() (inputs entities.PolicyInputs, useLast bool, err error) {
	holding, err := ParseCost("holding_cost", p.HoldingCost)
	if err != nil {
		return entities.PolicyInputs{}, false, err
	}
	stockout, err := ParseCost("stockout_cost", p.StockoutCost)
	if err != nil {
		return entities.PolicyInputs{}, false, err
	}

	inputs = entities.PolicyInputs{
		LeadTimeDays: p.LeadTimeDays,
		ServiceLevel: p.ServiceLevel,
		HoldingCost:  holding,
		StockoutCost: stockout,
	}
	if p.InitialInventory == nil {
		useLast = true
	} else {
		inputs.InitialInventory = *p.InitialInventory
	}

	if err := inputs.Validate(); err != nil {
		return entities.PolicyInputs{}, false, err
	}
	return inputs, useLast, nil
}

// ParseCost parses a decimal cost rate
func ParseCost(name, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid %s %q", entities.ErrInvalidCostParameter, name, value)
	}
	return d, nil
}
