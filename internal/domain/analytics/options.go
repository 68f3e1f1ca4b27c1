package analytics

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithSmoothingSeconds sets the rolling-mean window length in seconds.
func WithSmoothingSeconds(sec float64) Option {
	return func(a *Analyzer) {
		if sec > 0 {
			a.smoothSec = sec
		}
	}
}

// WithMaxPlausibleSpeed caps instantaneous speeds to reject sampling artefacts.
func WithMaxPlausibleSpeed(mps float64) Option {
	return func(a *Analyzer) {
		if mps > 0 {
			a.maxSpeed = mps
		}
	}
}

// WithHighSpeedThreshold sets the smoothed speed counted as high-speed running.
func WithHighSpeedThreshold(mps float64) Option {
	return func(a *Analyzer) {
		if mps > 0 {
			a.highSpeed = mps
		}
	}
}

// WithSprintThreshold sets the smoothed speed that opens a sprint bout.
func WithSprintThreshold(mps float64) Option {
	return func(a *Analyzer) {
		if mps > 0 {
			a.sprintSpeed = mps
		}
	}
}

// WithMinSprintDuration sets how long a bout must last to count.
func WithMinSprintDuration(sec float64) Option {
	return func(a *Analyzer) {
		if sec >= 0 {
			a.minSprintSec = sec
		}
	}
}

// WithPercentile sets the percentile reported as the peak smoothed speed.
func WithPercentile(p float64) Option {
	return func(a *Analyzer) {
		if p >= 0 && p <= 100 {
			a.percentile = p
		}
	}
}
