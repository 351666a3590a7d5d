package entities

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPolicyInputs(t *testing.T) {
	holding := decimal.RequireFromString("0.1")
	stockout := decimal.NewFromInt(10)

	tests := []struct {
		name         string
		inventory    float64
		leadTime     int
		serviceLevel float64
		holding      decimal.Decimal
		stockout     decimal.Decimal
		wantErr      error
	}{
		{"reference inputs", 5500, 2, 0.95, holding, stockout, nil},
		{"zero lead time", 0, 0, 0.5, decimal.Zero, decimal.Zero, nil},
		{"negative lead time", 5500, -1, 0.95, holding, stockout, ErrInvalidLeadTime},
		{"service level zero", 5500, 2, 0, holding, stockout, ErrInvalidServiceLevel},
		{"service level one", 5500, 2, 1, holding, stockout, ErrInvalidServiceLevel},
		{"negative inventory", -1, 2, 0.95, holding, stockout, ErrInvalidCostParameter},
		{"negative holding", 5500, 2, 0.95, holding.Neg(), stockout, ErrInvalidCostParameter},
		{"negative stockout", 5500, 2, 0.95, holding, stockout.Neg(), ErrInvalidCostParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inputs, err := NewPolicyInputs(tt.inventory, tt.leadTime, tt.serviceLevel, tt.holding, tt.stockout)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, inputs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.leadTime, inputs.LeadTimeDays)
		})
	}
}

func TestPolicyResult_HasWarning(t *testing.T) {
	r := &PolicyResult{Warnings: []PolicyWarning{WarningStockoutExpected}}
	assert.True(t, r.HasWarning(WarningStockoutExpected))
	assert.False(t, r.HasWarning(WarningOrderQuantityClamped))
}
