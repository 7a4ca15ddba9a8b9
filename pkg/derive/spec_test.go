package derive

import (
	"errors"
	"testing"

	"github.com/ethpandaops/datasage/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSpec(t *testing.T) {
	t.Run("filter", func(t *testing.T) {
		spec, err := DecodeSpec([]byte(`{
			"mode": "filter",
			"businessName": "Revenue US",
			"slug": "rev_us",
			"dimensionFilters": [{"dimensionSlug": "region", "values": "US"}]
		}`))
		require.NoError(t, err)

		fs, ok := spec.(FilterSpec)
		require.True(t, ok)
		assert.Equal(t, ModeFilter, fs.Mode())
		assert.Equal(t, "rev_us", fs.Slug)
		assert.Equal(t, []DimensionFilter{{DimensionSlug: "region", Values: "US"}}, fs.DimensionFilters)
	})

	t.Run("arithmetic", func(t *testing.T) {
		spec, err := DecodeSpec([]byte(`{
			"mode": "arithmetic",
			"businessName": "Margin",
			"slug": "margin",
			"otherMetricSlug": "cost",
			"operator": "div",
			"coefficient": 2
		}`))
		require.NoError(t, err)

		as, ok := spec.(ArithmeticSpec)
		require.True(t, ok)
		assert.Equal(t, OperatorDiv, as.Operator)
		assert.Equal(t, 2.0, as.EffectiveCoefficient())
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := DecodeSpec([]byte(`{"mode": "pivot"}`))
		assert.True(t, errors.Is(err, catalog.ErrValidation))
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := DecodeSpec([]byte(`{`))
		assert.True(t, errors.Is(err, ErrInvalidSpec))
	})
}

func TestEncodeSpec_RoundTrip(t *testing.T) {
	in := ArithmeticSpec{
		Header:          Header{BusinessName: "Margin", Slug: "margin"},
		OtherMetricSlug: "cost",
		Operator:        OperatorSub,
	}

	data, err := EncodeSpec(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mode":"arithmetic"`)

	out, err := DecodeSpec(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestParseCoefficient(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		nil  bool
	}{
		{raw: "", want: 1},
		{raw: "  ", want: 1},
		{raw: "2", want: 2},
		{raw: " 0.5 ", want: 0.5},
		{raw: "abc", nil: true},
		{raw: "NaN", nil: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParseCoefficient(tt.raw)
			if tt.nil {
				assert.Nil(t, got)
				assert.Equal(t, 1.0, ArithmeticSpec{Coefficient: got}.EffectiveCoefficient())

				return
			}

			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestOperatorSymbol(t *testing.T) {
	for op, want := range map[Operator]string{
		OperatorAdd: "+",
		OperatorSub: "-",
		OperatorMul: "*",
		OperatorDiv: "/",
	} {
		got, ok := op.Symbol()
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := Operator("mod").Symbol()
	assert.False(t, ok)
}
