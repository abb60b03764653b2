package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	cases := map[string]Money{
		"1200":     120000,
		"1,200.50": 120050,
		"$1200.5":  120050,
		"-300":     -30000,
		"(300.00)": -30000,
		"0.005":    1,
		"19.994":   1999,
		".75":      75,
		"+12.00":   1200,
	}
	for in, want := range cases {
		got, err := ParseMoney(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "abc", "12.3.4", "1e5", "--1"} {
		_, err := ParseMoney(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseMoneyRejectsAmountsBeyondInt64Cents(t *testing.T) {
	for _, bad := range []string{"100000000000000000", "-100000000000000000", "92233720368547758.00"} {
		_, err := ParseMoney(bad)
		assert.Error(t, err, bad)
	}

	largest, err := ParseMoney("92233720368547757.99")
	require.NoError(t, err)
	assert.Equal(t, Cents(9223372036854775799), largest)

	var payload struct {
		Premium Money `json:"premium"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"premium": 100000000000000000}`), &payload))
}

func TestMoneyFormatting(t *testing.T) {
	assert.Equal(t, "1500.00", Dollars(1500).String())
	assert.Equal(t, "-0.05", Cents(-5).String())
	assert.Equal(t, "$1,234,567.89", Cents(123456789).Display())
	assert.Equal(t, "-$300.00", Dollars(-300).Display())
}

func TestMoneyJSONAcceptsNumbersAndStrings(t *testing.T) {
	var payload struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 1200.10, "b": "-300"}`), &payload))
	assert.Equal(t, Cents(120010), payload.A)
	assert.Equal(t, Cents(-30000), payload.B)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1200.10, "b": -300.00}`, string(out))
}

func TestPremiumLedger(t *testing.T) {
	ledger, err := NewPremiumLedger(Dollars(1200), Dollars(300))
	require.NoError(t, err)
	assert.Equal(t, Dollars(1500), ledger.NewTotal)

	credit, err := NewPremiumLedger(Dollars(1200), Dollars(-1500))
	require.NoError(t, err)
	assert.Equal(t, Dollars(-300), credit.NewTotal)
}

func TestPremiumLedgerOverflow(t *testing.T) {
	_, err := NewPremiumLedger(Cents(math.MaxInt64-10), Cents(11))
	assert.ErrorIs(t, err, ErrPremiumOverflow)

	_, err = NewPremiumLedger(Cents(math.MinInt64+10), Cents(-11))
	assert.ErrorIs(t, err, ErrPremiumOverflow)

	edge, err := NewPremiumLedger(Cents(math.MaxInt64-10), Cents(10))
	require.NoError(t, err)
	assert.Equal(t, Cents(math.MaxInt64), edge.NewTotal)
}

func TestParseQuoteKind(t *testing.T) {
	cases := map[string]QuoteKind{
		"Endorsement":    QuoteKindEndorsement,
		" cancellation ": QuoteKindCancellation,
		"Reinstatement":  QuoteKindReinstatement,
		"New Business":   QuoteKindNewBusiness,
		"Audit":          QuoteKind("audit"),
		"":               QuoteKind(""),
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseQuoteKind(in), in)
	}
}
