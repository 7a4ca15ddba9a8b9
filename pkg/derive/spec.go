// Package derive synthesizes new metrics from existing ones, either by
// narrowing a base metric with dimension filters or by combining it
// arithmetically with another metric of the same domain.
package derive

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ethpandaops/datasage/pkg/catalog"
)

// Mode discriminates the two derivation variants
type Mode string

const (
	// ModeFilter narrows the base metric with dimension filters
	ModeFilter Mode = "filter"
	// ModeArithmetic combines the base metric with another metric
	ModeArithmetic Mode = "arithmetic"
)

// Operator is an arithmetic combination operator
type Operator string

const (
	// OperatorAdd adds the other metric
	OperatorAdd Operator = "add"
	// OperatorSub subtracts the other metric
	OperatorSub Operator = "sub"
	// OperatorMul multiplies by the other metric
	OperatorMul Operator = "mul"
	// OperatorDiv divides by the other metric
	OperatorDiv Operator = "div"
)

// Symbol returns the expression symbol for the operator
func (o Operator) Symbol() (string, bool) {
	switch o {
	case OperatorAdd:
		return "+", true
	case OperatorSub:
		return "-", true
	case OperatorMul:
		return "*", true
	case OperatorDiv:
		return "/", true
	default:
		return "", false
	}
}

// Header carries the fields shared by every derivation
type Header struct {
	BusinessName string `json:"businessName"`
	Slug         string `json:"slug"`
	Description  string `json:"description,omitempty"`
}

// Spec is a derivation request. It is implemented only by FilterSpec and
// ArithmeticSpec.
type Spec interface {
	Mode() Mode
	header() Header
}

// DimensionFilter restricts a dimension to a raw, untokenized list of values
type DimensionFilter struct {
	DimensionSlug string `json:"dimensionSlug"`
	Values        string `json:"values"`
}

// FilterSpec derives a metric by adding dimension filters to the base metric
type FilterSpec struct {
	Header
	DimensionFilters []DimensionFilter `json:"dimensionFilters"`
}

// Mode implements Spec
func (FilterSpec) Mode() Mode { return ModeFilter }

func (s FilterSpec) header() Header { return s.Header }

// ArithmeticSpec derives a metric by combining the base with another metric
type ArithmeticSpec struct {
	Header
	OtherMetricSlug string   `json:"otherMetricSlug"`
	Operator        Operator `json:"operator"`
	// Coefficient scales the other metric. Nil, NaN and infinities mean 1.
	Coefficient *float64 `json:"coefficient,omitempty"`
}

// Mode implements Spec
func (ArithmeticSpec) Mode() Mode { return ModeArithmetic }

func (s ArithmeticSpec) header() Header { return s.Header }

// EffectiveCoefficient returns the coefficient after defaulting
func (s ArithmeticSpec) EffectiveCoefficient() float64 {
	if s.Coefficient == nil {
		return 1
	}

	c := *s.Coefficient
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 1
	}

	return c
}

var (
	// ErrInvalidSpec is returned when a serialized spec cannot be decoded
	ErrInvalidSpec = errors.New("invalid derived metric spec")
)

type rawSpec struct {
	Mode Mode `json:"mode"`
}

// DecodeSpec decodes the JSON form of a spec using its "mode" discriminator
func DecodeSpec(data []byte) (Spec, error) {
	var raw rawSpec
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSpec, err)
	}

	switch raw.Mode {
	case ModeFilter:
		var s FilterSpec
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSpec, err)
		}

		return s, nil
	case ModeArithmetic:
		var s ArithmeticSpec
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSpec, err)
		}

		return s, nil
	default:
		return nil, catalog.NewFieldValidationError(catalog.ReasonUnknownMode, "mode")
	}
}

// EncodeSpec renders a spec in its JSON form including the discriminator
func EncodeSpec(spec Spec) ([]byte, error) {
	switch s := spec.(type) {
	case FilterSpec:
		return json.Marshal(struct {
			Mode Mode `json:"mode"`
			FilterSpec
		}{ModeFilter, s})
	case ArithmeticSpec:
		return json.Marshal(struct {
			Mode Mode `json:"mode"`
			ArithmeticSpec
		}{ModeArithmetic, s})
	default:
		return nil, catalog.NewFieldValidationError(catalog.ReasonUnknownMode, "mode")
	}
}

// ParseCoefficient parses user input for a coefficient. Blank input means 1;
// unparseable input yields nil, which the synthesizer treats as 1.
func ParseCoefficient(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = "1"
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) {
		return nil
	}

	return &v
}
