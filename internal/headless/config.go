// Package headless runs a drill without a viewer and writes its report.
// Sessions run in-process by default or against a running server when a
// base URL is given.
package headless

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Defaults for the command line.
const (
	DefaultDrill    = "chase"
	DefaultSeed     = 42
	DefaultDT       = 0.05
	DefaultDuration = 10 * time.Second
	DefaultTimeout  = 10 * time.Second
)

// ErrInvalidConfig is returned for unusable run settings.
var ErrInvalidConfig = errors.New("invalid run config")

// Config holds the settings of one headless run.
type Config struct {
	Drill      string        // Drill name: chase, shuttle or slalom
	PlayerIDs  []string      // Participants; empty picks the first roster players the drill needs
	RosterFile string        // Optional YAML roster; the sample roster is used otherwise
	Seed       int64         // Session seed
	DT         float64       // Fixed step in seconds
	Duration   time.Duration // Simulated session length
	Fatigue    bool          // Enable stamina depletion
	Format     string        // csv or json
	Output     string        // Output file; empty writes to the given writer
	BaseURL    string        // Drive a running server instead of an in-process service
	Timeout    time.Duration // HTTP request timeout in remote mode
	Commit     bool          // Commit the ratings after the report
	Verbose    bool          // Log at debug level
}

// Validate checks the settings and normalises the format.
func (c *Config) Validate() error {
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	switch {
	case strings.TrimSpace(c.Drill) == "":
		return fmt.Errorf("%w: drill must not be empty", ErrInvalidConfig)
	case c.DT <= 0:
		return fmt.Errorf("%w: dt must be positive", ErrInvalidConfig)
	case c.Duration <= 0:
		return fmt.Errorf("%w: duration must be positive", ErrInvalidConfig)
	case c.Format != FormatCSV && c.Format != FormatJSON:
		return fmt.Errorf("%w: format must be csv or json, got %q", ErrInvalidConfig, c.Format)
	case c.BaseURL != "" && c.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// Steps returns how many fixed steps cover the duration. The last step may
// overshoot by less than one dt.
func (c *Config) Steps() int {
	n := int(c.Duration.Seconds() / c.DT)
	if float64(n)*c.DT < c.Duration.Seconds()-1e-9 {
		n++
	}
	return n
}
