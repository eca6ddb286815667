// Package stats accumulates incremental mean/standard-deviation
// statistics over a stream of training-session outcomes (step counts,
// rewards), used to compare algorithms across repeated seeded runs.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Distribution is an incremental mean/variance accumulator, backed by
// gonum's stat package rather than a hand-rolled Welford
// implementation: the reference's own MeasureDistribution has a latent
// bug (mean_2 is assigned, not accumulated, each step), and gonum's
// stat.MeanVariance is the idiomatic Go way to do this correctly.
type Distribution struct {
	values []float64
}

// NewDistribution returns an empty accumulator.
func NewDistribution() *Distribution {
	return &Distribution{}
}

// Add folds one observation in.
func (d *Distribution) Add(v float64) {
	d.values = append(d.values, v)
}

// Count is the number of observations folded in so far.
func (d *Distribution) Count() int {
	return len(d.values)
}

// MeanStdDev returns the sample mean and standard deviation. With zero
// observations, mean is NaN and stddev is +Inf; with exactly one,
// stddev is NaN -- matching the reference's edge-case contract for an
// under-determined sample.
func (d *Distribution) MeanStdDev() (mean, stddev float64) {
	switch len(d.values) {
	case 0:
		return math.NaN(), math.Inf(1)
	case 1:
		return d.values[0], math.NaN()
	default:
		mean, variance := stat.MeanVariance(d.values, nil)
		return mean, math.Sqrt(variance)
	}
}

// Combine returns a new Distribution equivalent to folding every
// observation of both d and other into one accumulator, independent of
// processing order.
func (d *Distribution) Combine(other *Distribution) *Distribution {
	combined := make([]float64, 0, len(d.values)+len(other.values))
	combined = append(combined, d.values...)
	combined = append(combined, other.values...)
	return &Distribution{values: combined}
}
