package payroll

import "github.com/shopspring/decimal"

// =============================================================================
// ROUNDING RULES - Minute-based rounding of worked hours
// =============================================================================

// RoundingRule rounds a worked-hours value to a minute increment.
// nearest_* rounds to the closest increment, up_* always rounds up,
// none is the identity.
type RoundingRule string

const (
	RoundNone      RoundingRule = "none"
	RoundNearest15 RoundingRule = "nearest_15"
	RoundNearest30 RoundingRule = "nearest_30"
	RoundUp15      RoundingRule = "up_15"
	RoundUp30      RoundingRule = "up_30"
)

// Valid reports whether the rule is one of the recognized values.
func (r RoundingRule) Valid() bool {
	switch r {
	case RoundNone, RoundNearest15, RoundNearest30, RoundUp15, RoundUp30:
		return true
	}
	return false
}

var sixty = decimal.NewFromInt(60)

// Apply rounds hours per the rule. Negative input is a caller contract
// violation; it is rejected upstream at the fetch boundary.
func (r RoundingRule) Apply(h Hours) Hours {
	var increment decimal.Decimal
	var up bool

	switch r {
	case RoundNearest15:
		increment = decimal.NewFromInt(15)
	case RoundNearest30:
		increment = decimal.NewFromInt(30)
	case RoundUp15:
		increment, up = decimal.NewFromInt(15), true
	case RoundUp30:
		increment, up = decimal.NewFromInt(30), true
	default:
		return h
	}

	minutes := h.Value.Mul(sixty)
	steps := minutes.Div(increment)
	if up {
		steps = steps.Ceil()
	} else {
		steps = steps.Round(0)
	}
	return Hours{Value: steps.Mul(increment).Div(sixty)}
}
