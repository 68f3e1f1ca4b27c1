package analytics_test

import (
	"testing"

	"github.com/okian/pitchlab/internal/domain/analytics"
	"github.com/okian/pitchlab/internal/domain/geometry"
	"github.com/okian/pitchlab/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const sampleDt = 0.1

// buildTrace integrates a speed profile given as one speed per interval.
func buildTrace(speeds []float64) *model.PositionTrace {
	tr := model.NewPositionTrace(len(speeds) + 1)
	x := 0.0
	tr.Append(0, geometry.V(x, 30))
	for i, v := range speeds {
		x += v * sampleDt
		tr.Append(float64(i+1)*sampleDt, geometry.V(x, 30))
	}
	return tr
}

func constant(v float64, seconds float64) []float64 {
	n := int(seconds/sampleDt + 0.5)
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func alternating(high, low, highSec, lowSec float64, reps int) []float64 {
	var out []float64
	for i := 0; i < reps; i++ {
		out = append(out, constant(high, highSec)...)
		out = append(out, constant(low, lowSec)...)
	}
	return out
}

func TestComputeStraightLine(t *testing.T) {
	Convey("Given a straight-line trace at constant speed", t, func() {
		Convey("When the speed is above the sprint threshold for ten seconds", func() {
			m := analytics.Compute(buildTrace(constant(6, 10)))

			Convey("Then distance, speeds and sprints follow v and T", func() {
				So(m.DistanceM, ShouldAlmostEqual, 60, 1e-6)
				So(m.DurationSec, ShouldAlmostEqual, 10, 1e-6)
				So(m.AvgSpeedMps, ShouldAlmostEqual, 6, 1e-6)
				So(m.MaxSpeedMps, ShouldAlmostEqual, 6, 1e-6)
				So(m.P95SpeedMps, ShouldAlmostEqual, 6, 1e-6)
				So(m.HighSpeedSec, ShouldAlmostEqual, 10, 1e-6)
				So(m.SprintCount, ShouldEqual, 1)
			})
		})

		Convey("When the speed is below the sprint threshold", func() {
			m := analytics.Compute(buildTrace(constant(3, 10)))

			Convey("Then no sprint or high-speed time is reported", func() {
				So(m.AvgSpeedMps, ShouldAlmostEqual, 3, 1e-6)
				So(m.SprintCount, ShouldEqual, 0)
				So(m.HighSpeedSec, ShouldEqual, 0)
			})
		})

		Convey("When a fast run is shorter than the minimum bout", func() {
			m := analytics.Compute(buildTrace(constant(6, 0.8)))

			Convey("Then it is not a sprint", func() {
				So(m.SprintCount, ShouldEqual, 0)
				So(m.DistanceM, ShouldAlmostEqual, 4.8, 1e-6)
			})
		})
	})
}

func TestSprintBouts(t *testing.T) {
	Convey("Given alternating fast and slow segments analysed without smoothing", t, func() {
		noSmoothing := analytics.WithSmoothingSeconds(sampleDt)

		Convey("When the fast segments last 0.5 s", func() {
			m := analytics.Compute(buildTrace(alternating(7, 1, 0.5, 0.5, 4)), noSmoothing)

			Convey("Then every bout is too short to count", func() {
				So(m.SprintCount, ShouldEqual, 0)
			})
		})

		Convey("When the fast segments last 1.2 s", func() {
			m := analytics.Compute(buildTrace(alternating(7, 1, 1.2, 0.5, 4)), noSmoothing)

			Convey("Then each segment is one bout", func() {
				So(m.SprintCount, ShouldEqual, 4)
				So(m.HighSpeedSec, ShouldAlmostEqual, 4.8, 1e-6)
			})
		})
	})

	Convey("Given the same patterns under the default 1 s trailing mean", t, func() {
		Convey("When the fast segments last 0.5 s", func() {
			m := analytics.Compute(buildTrace(alternating(7, 1, 0.5, 0.5, 4)))

			Convey("Then there is still no sprint", func() {
				So(m.SprintCount, ShouldEqual, 0)
				So(m.HighSpeedSec, ShouldAlmostEqual, 0.8, 1e-6)
			})
		})

		Convey("When the fast segments last 1.2 s", func() {
			m := analytics.Compute(buildTrace(alternating(7, 1, 1.2, 0.5, 4)))

			Convey("Then only the first segment survives the smoothing as a bout", func() {
				// Later segments peak above 5.5 m/s for 0.7 s only: the
				// window still holds the preceding 1 m/s samples.
				So(m.SprintCount, ShouldEqual, 1)
				So(m.HighSpeedSec, ShouldAlmostEqual, 4.2, 1e-6)
				So(m.MaxSpeedMps, ShouldAlmostEqual, 7, 1e-6)
			})
		})
	})

	Convey("Given a smoothed series", t, func() {
		series := []float64{6, 6, 6, 1, 6, 6}
		dts := []float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5}

		Convey("Then a trailing run is counted and a dip splits runs", func() {
			So(analytics.CountBouts(series, dts, 5.5, 1.0), ShouldEqual, 2)
			So(analytics.CountBouts(series, dts, 5.5, 1.5), ShouldEqual, 1)
		})
	})
}

func TestDegenerateTraces(t *testing.T) {
	Convey("Given traces that cannot be analysed", t, func() {
		Convey("Then nil, empty and single-sample traces give zero metrics", func() {
			So(analytics.Compute(nil), ShouldResemble, model.SessionMetrics{})
			So(analytics.Compute(model.NewPositionTrace(0)), ShouldResemble, model.SessionMetrics{})
			one := model.NewPositionTrace(1)
			one.Append(0, geometry.V(1, 1))
			So(analytics.Compute(one), ShouldResemble, model.SessionMetrics{})
		})

		Convey("Then mismatched columns give zero metrics", func() {
			bad := &model.PositionTrace{T: []float64{0, 1, 2}, X: []float64{0, 1}, Y: []float64{0, 0, 0}}
			So(analytics.Compute(bad), ShouldResemble, model.SessionMetrics{})
		})

		Convey("Then a teleport is capped at the plausible maximum", func() {
			tr := model.NewPositionTrace(3)
			tr.Append(0, geometry.V(0, 0))
			tr.Append(0.1, geometry.V(50, 0))
			m := analytics.Compute(tr)
			So(m.MaxSpeedMps, ShouldEqual, analytics.DefaultMaxPlausibleMps)
			So(m.DistanceM, ShouldAlmostEqual, 50, 1e-9)
		})
	})
}

func TestHelpers(t *testing.T) {
	Convey("Given the statistics helpers", t, func() {
		Convey("Then the rolling mean is causal with a growing denominator", func() {
			So(analytics.RollingMean([]float64{2, 4, 6, 8}, 2), ShouldResemble, []float64{2, 3, 5, 7})
			So(analytics.RollingMean([]float64{1, 2}, 0), ShouldResemble, []float64{1, 2})
		})

		Convey("Then the percentile uses the nearest rank on sorted data", func() {
			xs := []float64{5, 1, 4, 2, 3}
			So(analytics.Percentile(xs, 95), ShouldEqual, 5)
			So(analytics.Percentile(xs, 50), ShouldEqual, 3)
			So(analytics.Percentile(xs, 0), ShouldEqual, 1)
			So(analytics.Percentile(nil, 95), ShouldEqual, 0)
			So(xs, ShouldResemble, []float64{5, 1, 4, 2, 3})
		})
	})
}
