package payroll

// =============================================================================
// OVERTIME SPLIT - Divide a day's hours into regular and overtime
// =============================================================================

// SplitHours divides a rounded hours value at the daily threshold:
//
//	regular  = min(hours, threshold)
//	overtime = hours - regular
//
// The two components always sum to the input exactly; the split itself
// introduces no rounding error.
func SplitHours(hours, threshold Hours) (regular, overtime Hours) {
	regular = hours.Min(threshold)
	overtime = hours.Sub(regular)
	return regular, overtime
}

// ClassifyHours applies the split for a single source record. Overtime
// requests are the exception: their approved hours were already adjudicated
// as overtime by the upstream approval workflow, so the full value is
// classified overtime regardless of threshold.
func ClassifyHours(source SourceType, hours, threshold Hours) (regular, overtime Hours) {
	if source == SourceOvertimeRequest {
		return ZeroHours(), hours
	}
	return SplitHours(hours, threshold)
}
