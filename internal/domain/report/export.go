package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// CSVHeader is the fixed column order of ExportCSV.
var CSVHeader = []string{
	"session_id", "date_time", "drill", "duration_s",
	"player_id", "player_name", "position", "speed_attr", "stamina_attr",
	"distance_m", "avg_speed_mps", "p95_speed_mps", "max_speed_mps",
	"high_speed_time_s", "sprint_count",
	"shuttles", "gates", "errors", "slalom_time_s",
	"feedback",
}

// ExportCSV renders one row per participant under CSVHeader.
func ExportCSV(r *SessionReport) (string, error) {
	const op = "report.ExportCSV"
	if r == nil {
		return "", fmt.Errorf("%s: nil report", op)
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(CSVHeader); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s := r.Session
	for _, p := range r.Participants {
		row := []string{
			s.ID, s.DateTime.Format(time.RFC3339), s.Drill, formatFloat(s.DurationSec),
			p.PlayerID, p.PlayerName, p.Position, strconv.Itoa(p.SpeedAttr), strconv.Itoa(p.StaminaAttr),
			formatFloat(p.DistanceM), formatFloat(p.AvgSpeedMps), formatFloat(p.P95SpeedMps), formatFloat(p.MaxSpeedMps),
			formatFloat(p.HighSpeedSec), strconv.Itoa(p.SprintCount),
			optInt(p.Shuttles), optInt(p.Gates), optInt(p.Errors), optFloat(p.SlalomTimeSec),
			p.Feedback,
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return buf.String(), nil
}

// ExportJSON renders the nested session/participants form.
func ExportJSON(r *SessionReport) (string, error) {
	const op = "report.ExportJSON"
	if r == nil {
		return "", fmt.Errorf("%s: nil report", op)
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(b), nil
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
