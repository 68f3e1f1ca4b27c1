package session_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/pitchlab/internal/domain/drill"
	"github.com/okian/pitchlab/internal/domain/model"
	"github.com/okian/pitchlab/internal/domain/report"
	"github.com/okian/pitchlab/internal/domain/session"
	. "github.com/smartystreets/goconvey/convey"
)

var t0 = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

func players(ids ...string) []model.Player {
	out := make([]model.Player, len(ids))
	for i, id := range ids {
		out[i] = model.Player{ID: id, Name: strings.ToUpper(id), Position: "ST", Ratings: model.Ratings{Speed: 55, Stamina: 80}}
	}
	return out
}

func newChase(seed int64, opts ...session.Option) *session.Session {
	opts = append([]session.Option{session.WithSeed(seed), session.WithClock(func() time.Time { return t0 })}, opts...)
	s, err := session.New("S-test", drill.KindChase, players("a", "b"), opts...)
	So(err, ShouldBeNil)
	return s
}

type recorder struct {
	mu    sync.Mutex
	snaps []session.Snapshot
}

func (r *recorder) Publish(s session.Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func TestLifecycle(t *testing.T) {
	Convey("Given a new chase session", t, func() {
		s := newChase(1)
		So(s.Status(), ShouldEqual, session.StatusNotStarted)

		Convey("When it is ticked before Start", func() {
			snap, err := s.Advance(0.05)

			Convey("Then nothing moves", func() {
				So(err, ShouldBeNil)
				So(snap.ElapsedSec, ShouldEqual, 0)
			})
		})

		Convey("When it is paused or resumed out of order", func() {
			So(errors.Is(s.Pause(), session.ErrInvalidTransition), ShouldBeTrue)
			So(errors.Is(s.Resume(), session.ErrInvalidTransition), ShouldBeTrue)
		})

		Convey("When it is started twice", func() {
			So(s.Start(), ShouldBeNil)
			So(errors.Is(s.Start(), session.ErrInvalidTransition), ShouldBeTrue)
		})

		Convey("When it runs, pauses and resumes", func() {
			So(s.Start(), ShouldBeNil)
			_, _ = s.Advance(0.05)
			So(s.Pause(), ShouldBeNil)
			before := s.Snapshot()
			_, _ = s.Advance(0.05)
			_, _ = s.Tick(t0.Add(time.Hour))

			Convey("Then pausing freezes the world", func() {
				So(s.Snapshot(), ShouldResemble, before)
				So(s.Status(), ShouldEqual, session.StatusPaused)
			})

			Convey("Then resuming re-baselines the clock", func() {
				So(s.Resume(), ShouldBeNil)
				snap, _ := s.Tick(t0.Add(2 * time.Hour))
				So(snap.ElapsedSec, ShouldAlmostEqual, 0.05, 1e-12)
				snap, _ = s.Tick(t0.Add(2*time.Hour + 50*time.Millisecond))
				So(snap.ElapsedSec, ShouldAlmostEqual, 0.1, 1e-12)
			})
		})
	})
}

func TestClockAnomalies(t *testing.T) {
	Convey("Given a running session", t, func() {
		s := newChase(2)
		So(s.Start(), ShouldBeNil)
		_, _ = s.Tick(t0)

		Convey("When the clock jumps forward", func() {
			snap, _ := s.Tick(t0.Add(5 * time.Second))
			So(snap.ElapsedSec, ShouldAlmostEqual, 0.1, 1e-12)
		})

		Convey("When the clock runs backwards", func() {
			snap, _ := s.Tick(t0.Add(-time.Second))
			So(snap.ElapsedSec, ShouldEqual, 0)
		})

		Convey("When a custom max step is configured", func() {
			s2 := newChase(2, session.WithMaxStep(20*time.Millisecond))
			So(s2.Start(), ShouldBeNil)
			snap, _ := s2.Advance(1)
			So(snap.ElapsedSec, ShouldAlmostEqual, 0.02, 1e-12)
		})
	})
}

func TestStop(t *testing.T) {
	Convey("Given a session that ran for a while", t, func() {
		rec := &recorder{}
		s := newChase(3, session.WithObserver(rec))
		So(s.Start(), ShouldBeNil)
		for i := 0; i < 40; i++ {
			_, _ = s.Advance(0.05)
		}

		Convey("When it is stopped twice", func() {
			first, err := s.Stop()
			So(err, ShouldBeNil)
			second, err := s.Stop()
			So(err, ShouldBeNil)

			Convey("Then the same report is returned and the session is analysed", func() {
				So(second, ShouldPointTo, first)
				So(s.Status(), ShouldEqual, session.StatusAnalyzed)
				So(first.Session.DurationSec, ShouldEqual, 2)
				So(first.Session.DateTime, ShouldResemble, t0)
			})

			Convey("Then no further step mutates the world", func() {
				before := s.Snapshot()
				_, _ = s.Advance(0.05)
				_, _ = s.Tick(t0.Add(time.Minute))
				So(s.Snapshot(), ShouldResemble, before)
				So(errors.Is(s.Resume(), session.ErrInvalidTransition), ShouldBeTrue)
			})

			Convey("Then Done is closed", func() {
				select {
				case <-s.Done():
				default:
					So("done channel open", ShouldBeEmpty)
				}
			})
		})

		Convey("Then the observer saw every step", func() {
			So(rec.count(), ShouldEqual, 41)
		})
	})

	Convey("Given a session stopped before it started", t, func() {
		s := newChase(4)
		rep, err := s.Stop()

		Convey("Then the report holds zero metrics and no rating suggestion", func() {
			So(err, ShouldBeNil)
			So(len(rep.Participants), ShouldEqual, 2)
			So(rep.Participants[0].DistanceM, ShouldEqual, 0)
			So(rep.Participants[0].RatingUpdate, ShouldBeNil)
		})
	})
}

func TestRejections(t *testing.T) {
	Convey("Given invalid session requests", t, func() {
		_, err := session.New("", drill.KindSlalom, nil)
		So(drill.ReasonCode(err), ShouldEqual, drill.ReasonNotEnoughParticipants)

		_, err = session.New("", drill.Kind("rondo"), players("a"))
		So(drill.ReasonCode(err), ShouldEqual, drill.ReasonUnknownDrillType)

		_, err = session.New("", drill.KindShuttle, players("a", "a"))
		So(drill.ReasonCode(err), ShouldEqual, drill.ReasonDuplicateParticipant)
	})
}

func TestEndToEndChase(t *testing.T) {
	Convey("Given a seeded two-player chase", t, func() {
		s := newChase(42)
		So(s.Start(), ShouldBeNil)

		Convey("When it runs ten simulated seconds at 50 ms and stops", func() {
			for i := 0; i < 200; i++ {
				_, err := s.Advance(0.05)
				So(err, ShouldBeNil)
			}
			rep, err := s.Stop()
			So(err, ShouldBeNil)

			csvOut, err := report.ExportCSV(rep)
			So(err, ShouldBeNil)
			jsonOut, err := report.ExportJSON(rep)
			So(err, ShouldBeNil)

			Convey("Then both participants covered ground", func() {
				So(rep.Session.DurationSec, ShouldEqual, 10)
				for _, p := range rep.Participants {
					So(p.DistanceM, ShouldBeGreaterThan, 0)
					So(p.AvgSpeedMps, ShouldBeGreaterThan, 0)
					So(p.RatingUpdate, ShouldNotBeNil)
					So(p.RatingUpdate.Bootstrap, ShouldBeTrue)
				}
			})

			Convey("Then CSV and JSON carry identical values", func() {
				rows, err := csv.NewReader(strings.NewReader(csvOut)).ReadAll()
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 3)

				var doc struct {
					Participants []map[string]any `json:"participants"`
				}
				So(json.Unmarshal([]byte(jsonOut), &doc), ShouldBeNil)
				for i, p := range doc.Participants {
					for col, name := range rows[0] {
						switch v := p[name].(type) {
						case float64:
							So(strconv.FormatFloat(v, 'f', -1, 64), ShouldEqual, rows[i+1][col])
						case string:
							So(v, ShouldEqual, rows[i+1][col])
						}
					}
				}
			})

			Convey("Then a replay with the same seed gives the same report", func() {
				again := newChase(42)
				So(again.Start(), ShouldBeNil)
				for i := 0; i < 200; i++ {
					_, _ = again.Advance(0.05)
				}
				rep2, _ := again.Stop()
				So(rep2.Participants, ShouldResemble, rep.Participants)
			})
		})
	})
}

func TestConcurrentSessions(t *testing.T) {
	Convey("Given several sessions stepped in parallel", t, func() {
		const n = 4
		sessions := make([]*session.Session, n)
		for i := range sessions {
			sessions[i] = newChase(7)
			So(sessions[i].Start(), ShouldBeNil)
		}

		var wg sync.WaitGroup
		for _, s := range sessions {
			wg.Add(1)
			go func(s *session.Session) {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					_, _ = s.Advance(0.05)
				}
			}(s)
		}
		wg.Wait()

		Convey("Then each evolves independently to the same state", func() {
			first := sessions[0].Snapshot()
			for _, s := range sessions[1:] {
				So(s.Snapshot().Participants, ShouldResemble, first.Participants)
			}
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a session driven by Run", t, func() {
		s := newChase(9)
		So(s.Start(), ShouldBeNil)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		errCh := make(chan error, 1)
		go func() { errCh <- s.Run(ctx, 5*time.Millisecond) }()

		time.Sleep(60 * time.Millisecond)
		_, err := s.Stop()
		So(err, ShouldBeNil)

		Convey("Then Run returns once the session stops", func() {
			So(<-errCh, ShouldBeNil)
			So(s.Snapshot().ElapsedSec, ShouldBeGreaterThan, 0)
		})
	})

	Convey("Given a non-positive interval", t, func() {
		s := newChase(9)
		So(s.Run(context.Background(), 0), ShouldNotBeNil)
	})
}

func TestSnapshotPercentCoordinates(t *testing.T) {
	Convey("Given a chase that has moved", t, func() {
		s := newChase(7)
		So(s.Start(), ShouldBeNil)
		for i := 0; i < 20; i++ {
			_, err := s.Advance(0.05)
			So(err, ShouldBeNil)
		}
		snap := s.Snapshot()

		Convey("Then every position is also given in percent of the pitch", func() {
			So(snap.Participants, ShouldHaveLength, 2)
			for _, p := range snap.Participants {
				So(p.PosPct.X, ShouldAlmostEqual, p.Pos.X/snap.Pitch.Length*100, 1e-9)
				So(p.PosPct.Y, ShouldAlmostEqual, p.Pos.Y/snap.Pitch.Width*100, 1e-9)
				So(p.PosPct.X, ShouldBeBetweenOrEqual, 0, 100)
				So(p.PosPct.Y, ShouldBeBetweenOrEqual, 0, 100)
			}
			So(snap.Ball, ShouldNotBeNil)
			So(snap.Ball.PosPct, ShouldResemble, snap.Pitch.ToPercent(snap.Ball.Pos))
		})

		Convey("Then the percent view is serialised", func() {
			b, err := json.Marshal(snap)
			So(err, ShouldBeNil)
			So(string(b), ShouldContainSubstring, `"pos_pct"`)
		})
	})
}
