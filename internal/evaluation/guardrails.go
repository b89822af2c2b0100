package evaluation

const (
	sweepFloor       = 0.05
	sweepCeiling     = 0.95
	minSweepStep     = 0.01
	defaultSweepStep = 0.05
)

// ClampSweepBounds forces sweep parameters into ranges that keep a sweep
// finite and meaningful: thresholds stay inside (0, 1), the step cannot be
// zero or negative, and inverted bounds are swapped.
func ClampSweepBounds(b SweepBounds) SweepBounds {
	if b.Step <= 0 {
		b.Step = defaultSweepStep
	}
	if b.Step < minSweepStep {
		b.Step = minSweepStep
	}

	if b.Max < b.Min {
		b.Min, b.Max = b.Max, b.Min
	}
	if b.Min < sweepFloor {
		b.Min = sweepFloor
	}
	if b.Max > sweepCeiling {
		b.Max = sweepCeiling
	}
	if b.Max < b.Min {
		b.Max = b.Min
	}

	return b
}
