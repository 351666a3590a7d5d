package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vsinha/invplan/pkg/domain/entities"
)

// requiredColumns must appear in the header; any other column is ignored
var requiredColumns = []string{"date", "product_id", "demand", "inventory"}

// Loader handles loading demand observations from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadObservations loads daily observations from a CSV file
func (l *Loader) LoadObservations(filename string) ([]*entities.Observation, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open observations file %s: %v", entities.ErrDataLoad, filename, err)
	}
	defer file.Close()

	return l.ReadObservations(file)
}

// ReadObservations parses observations from CSV data. Columns are matched
// by header name, case-insensitively.
func (l *Loader) ReadObservations(r io.Reader) ([]*entities.Observation, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read observations CSV: %v", entities.ErrDataLoad, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%w: observations CSV must have header and at least one data row", entities.ErrDataLoad)
	}

	columns, err := indexHeader(records[0])
	if err != nil {
		return nil, err
	}

	observations := make([]*entities.Observation, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != len(records[0]) {
			return nil, fmt.Errorf("%w: observations CSV row %d: expected %d columns, got %d",
				entities.ErrDataLoad, i+2, len(records[0]), len(record))
		}

		obs, err := parseObservation(record, columns)
		if err != nil {
			return nil, fmt.Errorf("observations CSV row %d: %w", i+2, err)
		}

		if n := len(observations); n > 0 && !obs.Date.After(observations[n-1].Date) &&
			obs.ProductID == observations[n-1].ProductID {
			return nil, fmt.Errorf("%w: observations CSV row %d: date %s is not after %s",
				entities.ErrDataLoad, i+2,
				obs.Date.Format(entities.DateLayout), observations[n-1].Date.Format(entities.DateLayout))
		}

		observations = append(observations, obs)
	}

	return observations, nil
}

// Helper functions for parsing CSV records

func indexHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, col := range header {
		columns[strings.ToLower(strings.TrimSpace(col))] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: observations CSV header missing columns %v. Expected: %v, Got: %v",
			entities.ErrDataLoad, missing, requiredColumns, header)
	}

	return columns, nil
}

func parseObservation(record []string, columns map[string]int) (*entities.Observation, error) {
	field := func(name string) string {
		return strings.TrimSpace(record[columns[name]])
	}

	dateStr := field("date")
	date, err := time.Parse(entities.DateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date format: %q (expected YYYY-MM-DD)", entities.ErrDataLoad, dateStr)
	}

	productID := entities.ProductID(field("product_id"))

	demand, err := parseQuantity("demand", field("demand"))
	if err != nil {
		return nil, err
	}

	inventory, err := parseQuantity("inventory", field("inventory"))
	if err != nil {
		return nil, err
	}

	return entities.NewObservation(date, productID, demand, inventory)
}

func parseQuantity(name, s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: missing %s", entities.ErrDataLoad, name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: invalid %s: %q", entities.ErrDataLoad, name, s)
	}
	return v, nil
}
