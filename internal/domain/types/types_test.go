package types_test

import (
	"encoding/json"
	"testing"

	types "github.com/okian/pitchlab/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEntry(t *testing.T) {
	Convey("Given a leaderboard entry", t, func() {
		entry := types.Entry{Rank: 1, PlayerID: "p-1", Name: "Ada", Position: "CM", SpeedRating: 48, LastAvgMps: 3.4}

		Convey("When encoded as JSON", func() {
			raw, err := json.Marshal(entry)
			So(err, ShouldBeNil)

			var m map[string]any
			So(json.Unmarshal(raw, &m), ShouldBeNil)

			Convey("Then it uses the snake_case API field names", func() {
				So(m["player_id"], ShouldEqual, "p-1")
				So(m["speed_rating"], ShouldEqual, 48)
				So(m["last_avg_speed_mps"], ShouldEqual, 3.4)
				So(m, ShouldContainKey, "rank")
			})
		})

		Convey("When zero valued", func() {
			var zero types.Entry

			Convey("Then it represents an unranked, unrated player", func() {
				So(zero.Rank, ShouldEqual, 0)
				So(zero.SpeedRating, ShouldEqual, 0)
			})
		})
	})
}
