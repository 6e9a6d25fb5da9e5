package utils

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationContext(t *testing.T) {
	t.Run("uses the given timeout", func(t *testing.T) {
		ctx, cancel := OperationContext(context.Background(), time.Minute)
		defer cancel()

		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, time.Second)
	})

	t.Run("falls back to the default timeout", func(t *testing.T) {
		ctx, cancel := OperationContext(nil, 0)
		defer cancel()

		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(DefaultOperationTimeout), deadline, time.Second)
	})

	t.Run("keeps a shorter parent deadline", func(t *testing.T) {
		parent, cancelParent := context.WithTimeout(context.Background(), time.Millisecond)
		defer cancelParent()

		ctx, cancel := OperationContext(parent, time.Hour)
		defer cancel()

		<-ctx.Done()
		assert.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
	})
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount   decimal.Decimal
		expected string
	}{
		{decimal.NewFromInt(90), "$90.00"},
		{decimal.RequireFromString("12.5"), "$12.50"},
		{decimal.RequireFromString("0.005"), "$0.01"},
		{decimal.Zero, "$0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatMoney(tt.amount))
		})
	}
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "1 item", Pluralize(1, "item"))
	assert.Equal(t, "0 items", Pluralize(0, "item"))
	assert.Equal(t, "3 items", Pluralize(3, "item"))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "TBD", FormatDate(nil))

	date := time.Date(2025, time.March, 7, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, "Mar 07, 2025", FormatDate(&date))
}

func TestParseID(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    uint
		wantErr bool
	}{
		{"valid", "42", 42, false},
		{"zero", "0", 0, true},
		{"negative", "-1", 0, true},
		{"not a number", "abc", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseID("order id", tt.raw)
			if tt.wantErr {
				var paramErr *ParamError
				require.ErrorAs(t, err, &paramErr)
				assert.Equal(t, "INVALID_ID", paramErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}
