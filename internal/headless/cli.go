package headless

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// ParseFlags parses the command line into a Config. It returns flag.ErrHelp
// when -help was given.
func ParseFlags(name string, args []string, errOut io.Writer) (*Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() { ShowHelp(errOut) }

	cfg := &Config{}
	var players string
	fs.StringVar(&cfg.Drill, "drill", DefaultDrill, "Drill to run: chase, shuttle or slalom")
	fs.StringVar(&players, "players", "", "Comma-separated player ids")
	fs.StringVar(&cfg.RosterFile, "roster", "", "YAML roster file")
	fs.Int64Var(&cfg.Seed, "seed", DefaultSeed, "Session seed")
	fs.Float64Var(&cfg.DT, "dt", DefaultDT, "Fixed step in seconds")
	fs.DurationVar(&cfg.Duration, "duration", DefaultDuration, "Simulated session length")
	fs.BoolVar(&cfg.Fatigue, "fatigue", false, "Enable stamina depletion")
	fs.StringVar(&cfg.Format, "format", FormatCSV, "Report format: csv or json")
	fs.StringVar(&cfg.Output, "output", "", "Write the report to this file instead of stdout")
	fs.StringVar(&cfg.BaseURL, "url", "", "Base URL of a running server; empty runs in-process")
	fs.DurationVar(&cfg.Timeout, "timeout", DefaultTimeout, "HTTP request timeout")
	fs.BoolVar(&cfg.Commit, "commit", false, "Commit the ratings after the run")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Enable verbose logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	for _, id := range strings.Split(players, ",") {
		if id = strings.TrimSpace(id); id != "" {
			cfg.PlayerIDs = append(cfg.PlayerIDs, id)
		}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ShowHelp prints usage information for the drill report tool.
func ShowHelp(w io.Writer) {
	fmt.Fprint(w, `Drill Report Tool
=================

Runs one drill session headless and prints its report.

Usage:
  drill-report [options]

Options:
  -drill string      Drill to run: chase, shuttle or slalom (default "chase")
  -players string    Comma-separated player ids (default: first roster players)
  -roster string     YAML roster file (default: built-in sample roster)
  -seed int          Session seed (default 42)
  -dt float          Fixed step in seconds (default 0.05)
  -duration dur      Simulated session length (default 10s)
  -fatigue           Enable stamina depletion
  -format string     Report format: csv or json (default "csv")
  -output string     Write the report to this file instead of stdout
  -url string        Base URL of a running server; empty runs in-process
  -timeout dur       HTTP request timeout (default 10s)
  -commit            Commit the ratings after the run
  -verbose           Enable verbose logging
  -help              Show this help message

Examples:
  drill-report -drill slalom -players P1,P2 -seed 7 -format json
  drill-report -url http://localhost:9080 -drill shuttle -players P3 -commit
`)
}
