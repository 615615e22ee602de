package fix

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrder() Order {
	return Order{
		ID:           "ORD-1",
		Pair:         "EUR/USD",
		Side:         "Buy",
		Type:         "LIMIT",
		Amount:       1_000_000,
		Price:        1.0845,
		Currency:     "EUR",
		TimeInForce:  "GTC",
		Status:       "Working",
		FilledAmount: 0,
	}
}

func fieldValue(t *testing.T, m Message, tag int) string {
	t.Helper()
	for _, f := range m.Fields {
		if f.Tag == tag {
			return f.Value
		}
	}
	t.Fatalf("tag %d not found", tag)
	return ""
}

func TestNewOrderSingleLayout(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	m := NewOrderSingle(sampleOrder(), now)

	assert.Equal(t, "D", m.MsgType)
	assert.Equal(t, "NewOrderSingle", m.MsgTypeName)
	assert.True(t, strings.HasPrefix(m.Raw, "8=FIX.4.4"+SOH+"9="))
	assert.True(t, strings.HasSuffix(m.Raw, SOH))

	assert.Equal(t, "EURUSD", fieldValue(t, m, 55))
	assert.Equal(t, "1", fieldValue(t, m, 54))
	assert.Equal(t, "2", fieldValue(t, m, 40))
	assert.Equal(t, "1000000", fieldValue(t, m, 38))
	assert.Equal(t, "1.0845", fieldValue(t, m, 44))
	assert.Equal(t, "1", fieldValue(t, m, 59))
	assert.Equal(t, "FOR", fieldValue(t, m, 167))
	assert.Equal(t, "20260302-10:30:00.000", fieldValue(t, m, 52))
	assert.Equal(t, "MAREXFX", fieldValue(t, m, 49))
	assert.Equal(t, "VENUE", fieldValue(t, m, 56))
}

func TestBodyLengthCountsBytesBetweenTag9AndTag10(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	m := NewOrderSingle(sampleOrder(), now)

	parts := strings.Split(strings.TrimSuffix(m.Raw, SOH), SOH)
	require.GreaterOrEqual(t, len(parts), 3)
	require.True(t, strings.HasPrefix(parts[1], "9="))

	declared, err := strconv.Atoi(strings.TrimPrefix(parts[1], "9="))
	require.NoError(t, err)

	bodyStart := strings.Index(m.Raw, SOH+"35=") + 1
	bodyEnd := strings.LastIndex(m.Raw, "10=")
	assert.Equal(t, declared, bodyEnd-bodyStart)
}

func TestChecksumMatchesByteSum(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	m := ExecutionReport(sampleOrder(), now)

	idx := strings.LastIndex(m.Raw, "10=")
	require.Greater(t, idx, 0)
	prefix := m.Raw[:idx]
	declared := m.Raw[idx+3 : idx+6]

	sum := 0
	for i := 0; i < len(prefix); i++ {
		sum += int(prefix[i])
	}
	want := sum % 256
	got, err := strconv.Atoi(declared)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Len(t, declared, 3)
}

func TestExecutionReportStatusMapping(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)

	order := sampleOrder()
	order.Status = "Filled"
	order.FilledAmount = order.Amount

	m := ExecutionReport(order, now)
	assert.Equal(t, "8", m.MsgType)
	assert.Equal(t, "ExecutionReport", m.MsgTypeName)
	assert.Equal(t, "2", fieldValue(t, m, 39))
	assert.Equal(t, "2", fieldValue(t, m, 150))
	assert.Equal(t, "1000000", fieldValue(t, m, 14))
	assert.Equal(t, "0", fieldValue(t, m, 151))
	// report flows venue -> terminal
	assert.Equal(t, "VENUE", fieldValue(t, m, 49))
	assert.Equal(t, "MAREXFX", fieldValue(t, m, 56))
}

func TestUnknownCodesFallBack(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	order := sampleOrder()
	order.Side = "Hold"
	order.Type = "ICEBERG"
	order.TimeInForce = "???"

	m := NewOrderSingle(order, now)
	assert.Equal(t, "1", fieldValue(t, m, 54))
	assert.Equal(t, "2", fieldValue(t, m, 40))
	assert.Equal(t, "1", fieldValue(t, m, 59))
}

func TestAlgoOrderTypesEncode(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)

	order := sampleOrder()
	order.Type = "TWAP"
	assert.Equal(t, "D", fieldValue(t, NewOrderSingle(order, now), 40))

	order.Type = "VWAP"
	assert.Equal(t, "V", fieldValue(t, NewOrderSingle(order, now), 40))
}

func TestForOrderReturnsPair(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	msgs := ForOrder(sampleOrder(), now)
	require.Len(t, msgs, 2)
	assert.Equal(t, "D", msgs[0].MsgType)
	assert.Equal(t, "8", msgs[1].MsgType)
}

func TestFieldNamesResolved(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	m := NewOrderSingle(sampleOrder(), now)
	for _, f := range m.Fields {
		assert.NotEmpty(t, f.Name, "tag %d", f.Tag)
	}
}
