package payroll_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/payroll-sync/payroll"
)

// =============================================================================
// ROUNDING RULE TESTS
// =============================================================================

func TestRoundingRule_Apply(t *testing.T) {
	// GIVEN: Raw worked hours in various fractions of an hour
	// WHEN: Applying each rounding rule
	// THEN: Minutes land on the rule's increment, up or nearest as configured

	tests := []struct {
		name  string
		rule  payroll.RoundingRule
		hours string
		want  string
	}{
		{"none passes through", payroll.RoundNone, "7.37", "7.37"},
		{"nearest 15 rounds down", payroll.RoundNearest15, "8.1", "8"},     // 8h06m -> 8h00m
		{"nearest 15 rounds up", payroll.RoundNearest15, "8.2", "8.25"},    // 8h12m -> 8h15m
		{"nearest 15 exact", payroll.RoundNearest15, "8.25", "8.25"},       // already on boundary
		{"nearest 30 rounds down", payroll.RoundNearest30, "7.2", "7"},     // 7h12m -> 7h00m
		{"nearest 30 rounds up", payroll.RoundNearest30, "7.3", "7.5"},     // 7h18m -> 7h30m
		{"up 15 always up", payroll.RoundUp15, "8.01", "8.25"},             // 8h01m -> 8h15m
		{"up 15 exact stays", payroll.RoundUp15, "8.5", "8.5"},             // boundary untouched
		{"up 30 always up", payroll.RoundUp30, "7.75", "8"},                // 7h45m -> 8h00m
		{"up 30 exact stays", payroll.RoundUp30, "7.5", "7.5"},             // boundary untouched
		{"zero is zero everywhere", payroll.RoundUp15, "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rule.Apply(payroll.MustParseHours(tt.hours))
			want := payroll.MustParseHours(tt.want)
			assert.True(t, got.Equal(want), "rule %s on %s: want %s, got %s", tt.rule, tt.hours, tt.want, got)
		})
	}
}

func TestRoundingRule_Apply_Idempotent(t *testing.T) {
	// GIVEN: Hours already rounded by a rule
	// WHEN: Applying the same rule again
	// THEN: The value does not move

	for _, rule := range []payroll.RoundingRule{
		payroll.RoundNearest15, payroll.RoundNearest30,
		payroll.RoundUp15, payroll.RoundUp30,
	} {
		once := rule.Apply(payroll.MustParseHours("9.13"))
		twice := rule.Apply(once)
		assert.True(t, once.Equal(twice), "rule %s not idempotent: %s then %s", rule, once, twice)
	}
}

func TestRoundingRule_Valid(t *testing.T) {
	for _, rule := range []payroll.RoundingRule{
		payroll.RoundNone, payroll.RoundNearest15, payroll.RoundNearest30,
		payroll.RoundUp15, payroll.RoundUp30,
	} {
		assert.True(t, rule.Valid(), "rule %s should be valid", rule)
	}
	assert.False(t, payroll.RoundingRule("nearest_7").Valid())
	assert.False(t, payroll.RoundingRule("").Valid())
}
