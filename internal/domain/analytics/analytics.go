// Package analytics derives athletic metrics from a recorded position trace.
// It depends on nothing but the trace samples.
package analytics

import (
	"math"
	"sort"

	"github.com/okian/pitchlab/internal/domain/model"
)

// Default thresholds.
const (
	DefaultSmoothingSeconds = 1.0
	DefaultMaxPlausibleMps  = 12.0
	DefaultHighSpeedMps     = 4.7
	DefaultSprintMps        = 5.5
	DefaultMinSprintSeconds = 1.0
	DefaultPercentile       = 95.0

	minDt            = 1e-6
	fallbackMedianDt = 0.2
)

// Analyzer computes SessionMetrics with a fixed set of thresholds.
type Analyzer struct {
	smoothSec    float64
	maxSpeed     float64
	highSpeed    float64
	sprintSpeed  float64
	minSprintSec float64
	percentile   float64
}

// New creates an Analyzer with default thresholds overridden by opts.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		smoothSec:    DefaultSmoothingSeconds,
		maxSpeed:     DefaultMaxPlausibleMps,
		highSpeed:    DefaultHighSpeedMps,
		sprintSpeed:  DefaultSprintMps,
		minSprintSec: DefaultMinSprintSeconds,
		percentile:   DefaultPercentile,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Compute analyses tr with default thresholds adjusted by opts.
func Compute(tr *model.PositionTrace, opts ...Option) model.SessionMetrics {
	return New(opts...).Compute(tr)
}

// Compute returns the metrics of tr. Traces with fewer than two samples or
// mismatched columns yield zero metrics.
func (a *Analyzer) Compute(tr *model.PositionTrace) model.SessionMetrics {
	if tr == nil {
		return model.SessionMetrics{}
	}
	n := len(tr.T)
	if n < 2 || len(tr.X) != n || len(tr.Y) != n {
		return model.SessionMetrics{}
	}

	dts := make([]float64, n-1)
	speeds := make([]float64, n-1)
	var dist, maxv float64
	for i := 1; i < n; i++ {
		d := math.Hypot(tr.X[i]-tr.X[i-1], tr.Y[i]-tr.Y[i-1])
		dt := math.Max(minDt, tr.T[i]-tr.T[i-1])
		v := math.Min(a.maxSpeed, d/dt)
		dts[i-1] = dt
		speeds[i-1] = v
		dist += d
		if v > maxv {
			maxv = v
		}
	}

	duration := tr.T[n-1] - tr.T[0]
	var avg float64
	if duration > 0 {
		avg = dist / duration
	}

	window := int(math.Max(1, math.Round(a.smoothSec/medianDt(dts))))
	smooth := RollingMean(speeds, window)

	var hiTime float64
	for i, v := range smooth {
		if v >= a.highSpeed {
			hiTime += dts[i]
		}
	}

	return model.SessionMetrics{
		DistanceM:    dist,
		DurationSec:  math.Max(0, duration),
		AvgSpeedMps:  avg,
		MaxSpeedMps:  maxv,
		P95SpeedMps:  Percentile(smooth, a.percentile),
		HighSpeedSec: hiTime,
		SprintCount:  CountBouts(smooth, dts, a.sprintSpeed, a.minSprintSec),
	}
}

// RollingMean is a causal trailing mean: element i averages the last
// min(i+1, window) values.
func RollingMean(xs []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(xs))
	var sum float64
	for i, x := range xs {
		sum += x
		if i >= window {
			sum -= xs[i-window]
		}
		out[i] = sum / float64(min(i+1, window))
	}
	return out
}

// CountBouts counts maximal runs where series[i] >= threshold whose summed
// duration reaches minDuration. A run still open at the end is counted.
func CountBouts(series, dts []float64, threshold, minDuration float64) int {
	count := 0
	var run float64
	in := false
	for i, v := range series {
		if v >= threshold {
			in = true
			run += dts[i]
			continue
		}
		if in && run >= minDuration {
			count++
		}
		in, run = false, 0
	}
	if in && run >= minDuration {
		count++
	}
	return count
}

// Percentile returns the nearest-rank p-th percentile of xs (0 for empty input).
func Percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	idx := int(math.Round(p / 100 * float64(len(sorted)-1)))
	idx = max(0, min(len(sorted)-1, idx))
	return sorted[idx]
}

func medianDt(dts []float64) float64 {
	if len(dts) == 0 {
		return fallbackMedianDt
	}
	sorted := append([]float64(nil), dts...)
	sort.Float64s(sorted)
	if m := sorted[len(sorted)/2]; m > 0 {
		return m
	}
	return fallbackMedianDt
}
