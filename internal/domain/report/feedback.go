package report

import (
	"fmt"
	"strings"

	"github.com/okian/pitchlab/internal/domain/model"
)

// Feedback thresholds.
const (
	minShuttleReps    = 20
	lowAvgMps         = 2.6
	topSpeedMps       = 6.5
	enduranceAvgMps   = 2.9
	aerobicDistanceM  = 1800
	aerobicAvgMps     = 3.0
	slowSlalomSec     = 15.0
	fastSlalomSec     = 10.0
	earlyStopFraction = 0.5
)

// Feedback picks the coaching line for one participant.
func Feedback(meta Meta, p ParticipantReport) string {
	name := p.PlayerName
	if name == "" {
		name = p.PlayerID
	}

	var line string
	switch {
	case meta.Drill == "slalom":
		line = slalomFeedback(name, meta.GatesTotal, p)
	case meta.Drill == "shuttle" && deref(p.Shuttles) < minShuttleReps:
		line = fmt.Sprintf("%s needs more repeatability. Aim for plus two shuttles next session.", name)
	case p.AvgSpeedMps < lowAvgMps:
		line = fmt.Sprintf("%s needs to raise steady pace. Target average above two point eight.", name)
	case p.MaxSpeedMps > topSpeedMps && p.AvgSpeedMps < enduranceAvgMps:
		line = fmt.Sprintf("%s has good top speed. Improve endurance to hold pace longer.", name)
	case p.DistanceM > aerobicDistanceM && p.AvgSpeedMps >= aerobicAvgMps:
		line = fmt.Sprintf("%s delivered a strong aerobic load today. Keep recovery solid.", name)
	default:
		line = fmt.Sprintf("%s completed the session.", name)
	}

	if note := roleNote(p); note != "" {
		line += " " + note
	}
	return line
}

func slalomFeedback(name string, total int, p ParticipantReport) string {
	gates, errs := deref(p.Gates), deref(p.Errors)
	var t float64
	if p.SlalomTimeSec != nil {
		t = *p.SlalomTimeSec
	}

	var b strings.Builder
	switch {
	case total > 0 && float64(gates)/float64(total) < earlyStopFraction:
		fmt.Fprintf(&b, "%s, the run stopped early at gate %d of %d. Master the first cones before the full course.", name, gates, total)
	case gates < total:
		fmt.Fprintf(&b, "%s reached gate %d but broke down near the end. Hold speed and precision through the final cones.", name, gates)
	case t > slowSlalomSec:
		fmt.Fprintf(&b, "%s completed the course in %.2fs. Good control, but the pace is cautious.", name, t)
	case t < fastSlalomSec:
		fmt.Fprintf(&b, "%s posted a brilliant %.2fs. Tighten the turns to cut travel distance.", name, t)
	default:
		fmt.Fprintf(&b, "%s completed the slalom in %.2fs. Keep practising to improve the time.", name, t)
	}
	fmt.Fprintf(&b, " Gates %d/%d, errors %d.", gates, total, errs)
	return b.String()
}

// roleNote compares a long session's distance with the role baseline.
func roleNote(p ParticipantReport) string {
	b := model.BaselineFor(p.Role)
	switch {
	case p.DistanceM > b.DistanceMaxM:
		return fmt.Sprintf("Workload above the %s range.", strings.ToLower(string(p.Role)))
	case p.DistanceM >= b.DistanceMinM:
		return fmt.Sprintf("Workload within the %s range.", strings.ToLower(string(p.Role)))
	}
	return ""
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
