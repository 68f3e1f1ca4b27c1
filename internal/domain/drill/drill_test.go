package drill

import (
	"math"
	"math/rand"
	"testing"

	"github.com/okian/pitchlab/internal/domain/geometry"
	"github.com/okian/pitchlab/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func roster(ids ...string) []model.Player {
	out := make([]model.Player, len(ids))
	for i, id := range ids {
		out[i] = model.Player{ID: id, Name: id, Position: "CM", Ratings: model.Ratings{Speed: 60, Stamina: 70}}
	}
	return out
}

func mustSetup(kind Kind, cfg Config, seed int64, players []model.Player) (Drill, *State) {
	d, err := New(kind, cfg, rand.New(rand.NewSource(seed)))
	So(err, ShouldBeNil)
	st, err := d.Setup(players)
	So(err, ShouldBeNil)
	return d, st
}

func run(d Drill, st *State, dt float64, steps int) {
	for i := 0; i < steps; i++ {
		d.Step(st, dt)
		st.Elapsed += dt
	}
}

func TestRejections(t *testing.T) {
	Convey("Given invalid drill requests", t, func() {
		Convey("When the drill name is unknown", func() {
			_, err := ParseKind("rondo")
			So(ReasonCode(err), ShouldEqual, ReasonUnknownDrillType)
			_, err = New(Kind("rondo"), DefaultConfig(), nil)
			So(ReasonCode(err), ShouldEqual, ReasonUnknownDrillType)
		})

		Convey("When names differ only in case", func() {
			k, err := ParseKind(" Slalom ")
			So(err, ShouldBeNil)
			So(k, ShouldEqual, KindSlalom)
		})

		Convey("When participant counts are wrong", func() {
			for _, tc := range []struct {
				kind Kind
				ids  []string
			}{
				{KindChase, []string{"a"}},
				{KindChase, []string{"a", "b", "c"}},
				{KindShuttle, nil},
				{KindShuttle, []string{"a", "b", "c"}},
				{KindSlalom, nil},
			} {
				d, _ := New(tc.kind, DefaultConfig(), nil)
				st, err := d.Setup(roster(tc.ids...))
				So(st, ShouldBeNil)
				So(ReasonCode(err), ShouldEqual, ReasonNotEnoughParticipants)
			}
		})

		Convey("When the same player is listed twice", func() {
			d, _ := New(KindChase, DefaultConfig(), nil)
			_, err := d.Setup(roster("a", "a"))
			So(ReasonCode(err), ShouldEqual, ReasonDuplicateParticipant)
		})

		Convey("Then unrelated errors have no reason code", func() {
			So(ReasonCode(nil), ShouldEqual, "")
		})
	})
}

func TestBallIntegration(t *testing.T) {
	Convey("Given the default ball physics", t, func() {
		cfg := DefaultConfig()

		Convey("When a ball crosses the right boundary", func() {
			b := &model.Ball{Pos: geometry.V(104.9, 34), Vel: geometry.V(5, 0)}
			IntegrateBall(b, cfg, 0.1)

			Convey("Then x velocity flips and is scaled by restitution", func() {
				So(b.Pos.X, ShouldEqual, cfg.Pitch.Length-cfg.WallEpsilon)
				So(b.Pos.Y, ShouldEqual, 34)
				want := -5 * cfg.Restitution * math.Pow(cfg.FrictionPerSec, 0.1)
				So(b.Vel.X, ShouldAlmostEqual, want, 1e-12)
				So(b.Vel.Y, ShouldEqual, 0)
			})
		})

		Convey("When a ball crosses the top and left boundaries", func() {
			b := &model.Ball{Pos: geometry.V(0.1, 0.1), Vel: geometry.V(-4, -4)}
			IntegrateBall(b, cfg, 0.1)

			Convey("Then both components point back inside", func() {
				So(b.Pos, ShouldResemble, geometry.V(cfg.WallEpsilon, cfg.WallEpsilon))
				So(b.Vel.X, ShouldBeGreaterThan, 0)
				So(b.Vel.Y, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When a free ball rolls for one second", func() {
			b := &model.Ball{Pos: geometry.V(50, 34), Vel: geometry.V(5, 0)}
			IntegrateBall(b, cfg, 1)
			So(b.Pos.X, ShouldAlmostEqual, 55, 1e-9)
			So(b.Vel.X, ShouldAlmostEqual, 4.9, 1e-9)
		})

		Convey("When the ball is almost still", func() {
			b := &model.Ball{Pos: geometry.V(50, 34), Vel: geometry.V(0.1, 0.05)}
			IntegrateBall(b, cfg, 0.05)
			So(b.Vel.IsZero(), ShouldBeTrue)
		})

		Convey("When dt is not positive", func() {
			b := &model.Ball{Pos: geometry.V(50, 34), Vel: geometry.V(5, 0)}
			IntegrateBall(b, cfg, -1)
			So(b.Pos, ShouldResemble, geometry.V(50, 34))
		})
	})
}

func TestChase(t *testing.T) {
	Convey("Given a seeded chase drill", t, func() {
		d, st := mustSetup(KindChase, DefaultConfig(), 7, roster("a", "b"))

		Convey("Then participants start on opposite sides of the ball", func() {
			So(st.Participants[0].Pos, ShouldResemble, geometry.V(26.25, 34))
			So(st.Participants[1].Pos, ShouldResemble, geometry.V(78.75, 34))
			So(st.Ball.Pos, ShouldResemble, st.Pitch.Center())
		})

		Convey("When it runs for ten seconds", func() {
			speedOK := true
			for i := 0; i < 200; i++ {
				d.Step(st, 0.05)
				st.Elapsed += 0.05
				for _, p := range st.Participants {
					if p.Vel.Len() > p.CurrentSpeed()+1e-9 {
						speedOK = false
					}
				}
			}

			Convey("Then the ball was kicked and everything stayed on the pitch", func() {
				So(st.Ball.LastKicker, ShouldNotBeEmpty)
				So(speedOK, ShouldBeTrue)
				So(st.Pitch.Contains(st.Ball.Pos), ShouldBeTrue)
				for _, p := range st.Participants {
					So(st.Pitch.Contains(p.Pos), ShouldBeTrue)
				}
			})
		})

		Convey("When the same seed is replayed", func() {
			d2, st2 := mustSetup(KindChase, DefaultConfig(), 7, roster("a", "b"))
			run(d, st, 0.05, 150)
			run(d2, st2, 0.05, 150)

			Convey("Then the trajectories are identical", func() {
				So(st2.Ball.Pos, ShouldResemble, st.Ball.Pos)
				So(st2.Participants[0].Pos, ShouldResemble, st.Participants[0].Pos)
			})
		})

		Convey("When the ball references a participant that is gone", func() {
			st.Ball.Possession = "ghost"
			st.Ball.LastKicker = "ghost"
			So(func() { d.Step(st, 0.05) }, ShouldNotPanic)

			Convey("Then the references are treated as loose", func() {
				So(st.Ball.Possession, ShouldNotEqual, "ghost")
				So(st.Ball.LastKicker, ShouldNotEqual, "ghost")
			})
		})
	})
}

func TestCollisions(t *testing.T) {
	Convey("Given a chase state", t, func() {
		cfg := DefaultConfig()
		_, st := mustSetup(KindChase, cfg, 1, roster("a", "b"))

		Convey("When two players overlap", func() {
			st.Participants[0].Place(geometry.V(50, 34))
			st.Participants[1].Place(geometry.V(50.3, 34))
			resolveCollisions(st, cfg)

			Convey("Then they are pushed apart symmetrically", func() {
				d := st.Participants[0].Pos.Dist(st.Participants[1].Pos)
				So(d, ShouldAlmostEqual, 2*cfg.PlayerRadius+geometry.SeparationMargin, 1e-9)
				So(st.Participants[0].Pos.X+st.Participants[1].Pos.X, ShouldAlmostEqual, 100.3, 1e-9)
			})
		})

		Convey("When the ball runs into a player", func() {
			st.Participants[0].Place(geometry.V(50, 34))
			st.Ball.Pos = geometry.V(49.7, 34)
			st.Ball.Vel = geometry.V(3, 0)
			resolveCollisions(st, cfg)

			Convey("Then the ball bounces back with restitution", func() {
				So(st.Ball.Vel.X, ShouldAlmostEqual, -3*cfg.Restitution, 1e-9)
				So(st.Ball.Pos.Dist(st.Participants[0].Pos), ShouldBeGreaterThanOrEqualTo, cfg.BallRadius+cfg.PlayerRadius)
			})
		})
	})
}

func TestShuttle(t *testing.T) {
	Convey("Given a shuttle drill", t, func() {
		Convey("When one participant runs at 6.3 m/s for 25 s", func() {
			d, st := mustSetup(KindShuttle, DefaultConfig(), 3, roster("a"))
			p := st.Participants[0]
			So(p.Pos, ShouldResemble, geometry.V(21, 34))
			p.Capacity.BaseMps = 6.3
			run(d, st, 0.05, 500)

			Convey("Then each completed leg counts one repetition", func() {
				So(p.Progress.Reps, ShouldEqual, 2)
				So(p.Pos.Y, ShouldEqual, 34)
			})
		})

		Convey("When two participants share the drill", func() {
			_, st := mustSetup(KindShuttle, DefaultConfig(), 3, roster("a", "b"))

			Convey("Then they run in separate lanes", func() {
				So(st.Participants[0].Pos.Y, ShouldEqual, 28)
				So(st.Participants[1].Pos.Y, ShouldEqual, 40)
				So(st.Ball, ShouldBeNil)
			})
		})
	})
}

func TestSlalom(t *testing.T) {
	Convey("Given the slalom gate layout", t, func() {
		gates := GatePositions(geometry.StandardPitch, 34, 8)

		Convey("Then gates weave evenly across the pitch", func() {
			So(len(gates), ShouldEqual, 8)
			So(gates[0].X, ShouldAlmostEqual, 15.75, 1e-9)
			So(gates[7].X, ShouldAlmostEqual, 89.25, 1e-9)
			So(gates[0].Y, ShouldEqual, 28)
			So(gates[1].Y, ShouldEqual, 40)
		})
	})

	Convey("Given a slalom run at 3 m/s", t, func() {
		Convey("When it runs to completion", func() {
			d, st := mustSetup(KindSlalom, DefaultConfig(), 5, roster("a"))
			p := st.Participants[0]
			p.Capacity.BaseMps = 3
			for i := 0; i < 2000 && !st.Done(); i++ {
				run(d, st, 0.05, 1)
			}

			Convey("Then every gate is cleared without errors", func() {
				So(st.Done(), ShouldBeTrue)
				So(p.Progress.Gates, ShouldEqual, 8)
				So(p.Progress.Errors, ShouldEqual, 0)
				So(p.Progress.CompletionSec, ShouldAlmostEqual, st.Elapsed, 1e-9)
			})

			Convey("And later steps keep the participant still", func() {
				pos := p.Pos
				run(d, st, 0.05, 10)
				So(p.Pos, ShouldResemble, pos)
				So(p.Progress.Gates, ShouldEqual, 8)
			})
		})

		Convey("When the error speed threshold is lowered", func() {
			cfg := DefaultConfig()
			cfg.ErrorSpeedMps = 1
			d, st := mustSetup(KindSlalom, cfg, 5, roster("a"))
			st.Participants[0].Capacity.BaseMps = 3
			for i := 0; i < 2000 && !st.Done(); i++ {
				run(d, st, 0.05, 1)
			}

			Convey("Then the sharp turns at each gate count as errors", func() {
				So(st.Participants[0].Progress.Errors, ShouldBeGreaterThan, 0)
			})
		})
	})

	Convey("Given the error heuristic", t, func() {
		s := &slalom{cfg: DefaultConfig()}

		Convey("Then only sharp reversals at speed count", func() {
			So(s.isError(geometry.V(0.3, 0), geometry.V(-0.3, 0), 0.05), ShouldBeTrue)
			So(s.isError(geometry.V(0.3, 0), geometry.V(-0.3, 0), 0.1), ShouldBeFalse)
			So(s.isError(geometry.V(0.3, 0), geometry.V(0.3, 0.3), 0.05), ShouldBeFalse)
			So(s.isError(geometry.V(0.005, 0), geometry.V(-0.3, 0), 0.05), ShouldBeFalse)
		})
	})
}
