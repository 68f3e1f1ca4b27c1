package headless_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/pitchlab/internal/adapters/http/api"
	service "github.com/okian/pitchlab/internal/app"
	"github.com/okian/pitchlab/internal/domain/report"
	"github.com/okian/pitchlab/internal/headless"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseFlags(t *testing.T) {
	Convey("Given the drill report command line", t, func() {
		var errOut bytes.Buffer

		Convey("When no flags are given", func() {
			cfg, err := headless.ParseFlags("drill-report", nil, &errOut)

			Convey("Then the defaults are used", func() {
				So(err, ShouldBeNil)
				So(cfg.Drill, ShouldEqual, headless.DefaultDrill)
				So(cfg.Seed, ShouldEqual, headless.DefaultSeed)
				So(cfg.DT, ShouldEqual, headless.DefaultDT)
				So(cfg.Format, ShouldEqual, headless.FormatCSV)
				So(cfg.PlayerIDs, ShouldBeEmpty)
				So(cfg.Steps(), ShouldEqual, 200)
			})
		})

		Convey("When players, format and url are given", func() {
			cfg, err := headless.ParseFlags("drill-report", []string{
				"-drill", "slalom", "-players", " P1, ,P2 ", "-format", "JSON", "-url", "http://localhost:9080/",
			}, &errOut)

			Convey("Then they are normalised", func() {
				So(err, ShouldBeNil)
				So(cfg.PlayerIDs, ShouldResemble, []string{"P1", "P2"})
				So(cfg.Format, ShouldEqual, headless.FormatJSON)
				So(cfg.BaseURL, ShouldEqual, "http://localhost:9080")
			})
		})

		Convey("When the format or step is invalid", func() {
			_, errFormat := headless.ParseFlags("drill-report", []string{"-format", "xml"}, &errOut)
			_, errDT := headless.ParseFlags("drill-report", []string{"-dt", "0"}, &errOut)

			Convey("Then ErrInvalidConfig is returned", func() {
				So(errors.Is(errFormat, headless.ErrInvalidConfig), ShouldBeTrue)
				So(errors.Is(errDT, headless.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When help is requested", func() {
			_, err := headless.ParseFlags("drill-report", []string{"-help"}, &errOut)

			Convey("Then flag.ErrHelp is returned and usage printed", func() {
				So(errors.Is(err, flag.ErrHelp), ShouldBeTrue)
				So(errOut.String(), ShouldContainSubstring, "Drill Report Tool")
			})
		})
	})
}

func TestSteps(t *testing.T) {
	Convey("Given a duration that is not a multiple of dt", t, func() {
		cfg := &headless.Config{DT: 0.3, Duration: time.Second}

		Convey("Then the last step covers the remainder", func() {
			So(cfg.Steps(), ShouldEqual, 4)
		})
	})
}

func baseConfig() *headless.Config {
	return &headless.Config{
		Drill:    "chase",
		Seed:     42,
		DT:       0.05,
		Duration: 5 * time.Second,
		Format:   headless.FormatCSV,
		Timeout:  5 * time.Second,
	}
}

func TestRunLocal(t *testing.T) {
	Convey("Given an in-process run over the sample roster", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		cfg := baseConfig()
		var out bytes.Buffer

		Convey("When a chase is run to CSV", func() {
			res, err := headless.NewRunner(cfg).Run(ctx, &out)

			Convey("Then one CSV row per participant is written", func() {
				So(err, ShouldBeNil)
				So(res.Steps, ShouldEqual, 100)
				So(res.ElapsedSec, ShouldAlmostEqual, 5.0, 1e-9)
				So(res.Participants, ShouldEqual, 2)
				So(res.CommitStatus, ShouldBeEmpty)

				lines := strings.Split(strings.TrimSpace(out.String()), "\n")
				So(len(lines), ShouldEqual, 3)
				So(lines[0], ShouldEqual, strings.Join(report.CSVHeader, ","))
				So(lines[1], ShouldContainSubstring, ",P1,")
				So(lines[2], ShouldContainSubstring, ",P2,")
			})
		})

		Convey("When a shuttle is run to JSON and committed", func() {
			cfg.Drill = "shuttle"
			cfg.PlayerIDs = []string{"P3"}
			cfg.Format = headless.FormatJSON
			cfg.Commit = true
			res, err := headless.NewRunner(cfg).Run(ctx, &out)

			Convey("Then the JSON report and the commit are produced", func() {
				So(err, ShouldBeNil)
				So(res.CommitStatus, ShouldEqual, service.CommitCommitted)

				var rep struct {
					Session struct {
						ID    string `json:"session_id"`
						Drill string `json:"drill"`
					} `json:"session"`
					Participants []json.RawMessage `json:"participants"`
				}
				So(json.Unmarshal(out.Bytes(), &rep), ShouldBeNil)
				So(rep.Session.ID, ShouldEqual, res.SessionID)
				So(rep.Session.Drill, ShouldEqual, "shuttle")
				So(len(rep.Participants), ShouldEqual, 1)
			})
		})

		Convey("When the output goes to a file", func() {
			cfg.Output = filepath.Join(t.TempDir(), "reports", "run.csv")
			_, err := headless.NewRunner(cfg).Run(ctx, &out)

			Convey("Then the file holds the report and the writer stays empty", func() {
				So(err, ShouldBeNil)
				So(out.Len(), ShouldEqual, 0)
				data, err := os.ReadFile(cfg.Output)
				So(err, ShouldBeNil)
				So(string(data), ShouldStartWith, "session_id,")
			})
		})

		Convey("When the drill is unknown", func() {
			cfg.Drill = "rondo"
			_, err := headless.NewRunner(cfg).Run(ctx, &out)

			Convey("Then the run fails before anything is written", func() {
				So(err, ShouldNotBeNil)
				So(out.Len(), ShouldEqual, 0)
			})
		})

		Convey("When a roster file names the players", func() {
			path := filepath.Join(t.TempDir(), "roster.yaml")
			So(os.WriteFile(path, []byte("players:\n  - id: X1\n    name: Xan\n    position: LW\n"), 0o600), ShouldBeNil)
			cfg.RosterFile = path
			cfg.Drill = "slalom"

			res, err := headless.NewRunner(cfg).Run(ctx, &out)

			Convey("Then the roster head is used", func() {
				So(err, ShouldBeNil)
				So(res.Participants, ShouldEqual, 1)
				So(out.String(), ShouldContainSubstring, ",X1,Xan,")
			})
		})
	})
}

func TestRunRemote(t *testing.T) {
	Convey("Given a running API server", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		svc := service.New(service.WithPlayers(headless.SampleRoster()), service.WithWorkerCount(1))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc, 100).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		cfg := baseConfig()
		cfg.BaseURL = srv.URL
		cfg.Commit = true

		Convey("When a run drives it over HTTP", func() {
			var out bytes.Buffer
			res, err := headless.NewRunner(cfg).Run(ctx, &out)

			Convey("Then the server holds the analysed session and the committed ratings", func() {
				So(err, ShouldBeNil)
				So(res.Steps, ShouldEqual, 100)
				So(res.CommitStatus, ShouldEqual, service.CommitCommitted)
				So(out.String(), ShouldStartWith, "session_id,")

				rep, err := svc.Report(ctx, res.SessionID)
				So(err, ShouldBeNil)
				So(len(rep.Participants), ShouldEqual, 2)

				p, err := svc.Player(ctx, "P1")
				So(err, ShouldBeNil)
				So(len(p.MatchHistory), ShouldEqual, 1)
			})
		})

		Convey("When the server rejects the session", func() {
			cfg.PlayerIDs = []string{"P1"}
			_, err := headless.NewRunner(cfg).Run(ctx, io.Discard)

			Convey("Then the server error is returned", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "NotEnoughParticipants")
			})
		})
	})

	Convey("Given no server at the url", t, func() {
		cfg := baseConfig()
		cfg.BaseURL = "http://127.0.0.1:1"
		cfg.Timeout = time.Second

		Convey("Then the health check fails", func() {
			_, err := headless.NewRunner(cfg).Run(context.Background(), io.Discard)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "health check")
		})
	})
}
