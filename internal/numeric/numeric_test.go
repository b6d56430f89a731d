package numeric

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"integer", "42", "42"},
		{"decimal", "10.50", "10.5"},
		{"negative", "-5", "-5"},
		{"thousands", "1,234.56", "1234.56"},
		{"dollar", "$99.99", "99.99"},
		{"rupee", "₹1,200", "1200"},
		{"accounting negative", "(123.45)", "-123.45"},
		{"scientific", "1.5e3", "1500"},
		{"padded", "  7  ", "7"},
		{"blank", "", "0"},
		{"nan artifact", "NaN", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"abc", "12abc", "1.2.3", "--5"} {
		got, err := Parse(in)
		require.Error(t, err, in)
		assert.ErrorIs(t, err, ErrNotNumeric)
		assert.True(t, got.IsZero())
	}
}

func TestParse_ExponentBound(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"1e30", true},
		{"2.5e-29", true},
		{"1e31", false},
		{"1e-50000000", false},
		{"9E+99999999", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.ok {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrNotNumeric)
			assert.True(t, got.IsZero())
		})
	}

	var c Coercer
	sum := c.Coerce("1e-50000000").Add(c.Coerce("1"))
	assert.Equal(t, "1", Format(sum))
	assert.Equal(t, 1, c.Warnings)
}

func TestCoercer_CountsWarnings(t *testing.T) {
	var c Coercer
	assert.Equal(t, "3", Format(c.Coerce("3")))
	assert.Equal(t, "0", Format(c.Coerce("")))
	assert.Equal(t, "0", Format(c.Coerce("oops")))
	assert.Equal(t, "0", Format(c.Coerce("n/a")))
	assert.Equal(t, 1, c.Warnings)
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(" "))
	assert.True(t, IsBlank("nan"))
	assert.True(t, IsBlank("None"))
	assert.False(t, IsBlank("0"))
}
