package rating_test

import (
	"testing"
	"time"

	"github.com/okian/pitchlab/internal/domain/model"
	"github.com/okian/pitchlab/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

var day = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func history(speeds ...float64) []model.MatchEntry {
	out := make([]model.MatchEntry, len(speeds))
	for i, s := range speeds {
		out[i] = model.MatchEntry{Date: day.AddDate(0, 0, i), AvgSpeedMps: s}
	}
	return out
}

func TestConvert(t *testing.T) {
	Convey("Given the default protocol", t, func() {
		p := rating.New()

		Convey("Then speeds scale linearly against 9 m/s and clamp", func() {
			So(p.Convert(4.5), ShouldEqual, 50)
			So(p.Convert(9), ShouldEqual, 100)
			So(p.Convert(15), ShouldEqual, 100)
			So(p.Convert(-1), ShouldEqual, 0)
			So(p.Convert(0), ShouldEqual, 0)
		})
	})
}

func TestApplyBootstrap(t *testing.T) {
	Convey("Given a brand-new player", t, func() {
		p := rating.New()
		player := model.Player{ID: "new"}

		Convey("When a 4.5 m/s session is applied", func() {
			out, upd := p.Apply(player, day, 4.5)

			Convey("Then the rating is the direct conversion", func() {
				So(upd.NewRating, ShouldEqual, 50)
				So(upd.Bootstrap, ShouldBeTrue)
				So(upd.WasUnrated, ShouldBeTrue)
				So(upd.PreviousRating, ShouldEqual, 0)
				So(upd.Change, ShouldEqual, 50)
				So(upd.MatchesPlayed, ShouldEqual, 1)
				So(out.Ratings.Speed, ShouldEqual, 50)
				So(len(out.MatchHistory), ShouldEqual, 1)
			})

			Convey("And the input player is untouched", func() {
				So(player.Ratings.Speed, ShouldEqual, 0)
				So(player.MatchHistory, ShouldBeEmpty)
			})
		})

		Convey("When a rated player with one prior session plays again", func() {
			rated := model.Player{ID: "r", Ratings: model.Ratings{Speed: 30}, MatchHistory: history(2.7)}
			_, upd := p.Apply(rated, day, 5.4)

			Convey("Then two sessions still bootstrap from the latest", func() {
				So(upd.Bootstrap, ShouldBeTrue)
				So(upd.NewRating, ShouldEqual, 60)
			})
		})
	})
}

func TestApplyRollingWindow(t *testing.T) {
	Convey("Given a player with six 3 m/s sessions", t, func() {
		p := rating.New()
		player := model.Player{ID: "p", Ratings: model.Ratings{Speed: 33}, MatchHistory: history(3, 3, 3, 3, 3, 3)}

		Convey("When a 6 m/s session is applied", func() {
			out, upd := p.Apply(player, day.AddDate(0, 0, 7), 6)

			Convey("Then the oldest session drops out of the mean", func() {
				So(upd.Bootstrap, ShouldBeFalse)
				So(upd.SessionsAveraged, ShouldEqual, 6)
				So(upd.WindowMeanMps, ShouldAlmostEqual, 3.5, 1e-9)
				So(upd.NewRating, ShouldEqual, 39)
				So(upd.Change, ShouldEqual, 6)
				So(len(out.MatchHistory), ShouldEqual, 6)
				So(out.MatchHistory[5].AvgSpeedMps, ShouldEqual, 6)
			})
		})

		Convey("When the bootstrap threshold is raised", func() {
			_, upd := rating.New(rating.WithBootstrapSessions(10)).Apply(player, day, 6)

			Convey("Then the latest session is used directly", func() {
				So(upd.Bootstrap, ShouldBeTrue)
				So(upd.NewRating, ShouldEqual, 67)
			})
		})

		Convey("When the same session is applied twice", func() {
			once, _ := p.Apply(player, day, 6)
			twice, _ := p.Apply(once, day, 6)

			Convey("Then it is counted twice", func() {
				So(twice.MatchHistory[4].AvgSpeedMps, ShouldEqual, 6)
				So(twice.MatchHistory[5].AvgSpeedMps, ShouldEqual, 6)
				So(twice.Ratings.Speed, ShouldEqual, 44)
			})
		})
	})
}

func TestApplyUpdates(t *testing.T) {
	Convey("Given players and precomputed updates", t, func() {
		players := []model.Player{{ID: "a", Ratings: model.Ratings{Speed: 20}}, {ID: "b", Ratings: model.Ratings{Speed: 40}}}
		updates := []model.RatingUpdate{{PlayerID: "b", NewRating: 55, History: history(4.95)}}

		Convey("When applied", func() {
			out := rating.ApplyUpdates(players, updates)

			Convey("Then only matching players change", func() {
				So(out[0].Ratings.Speed, ShouldEqual, 20)
				So(out[1].Ratings.Speed, ShouldEqual, 55)
				So(len(out[1].MatchHistory), ShouldEqual, 1)
				So(players[1].Ratings.Speed, ShouldEqual, 40)
			})
		})
	})
}
