package model

import (
	"strings"
	"unicode"
)

// Role is the tactical role derived from a free-text position.
type Role string

// Roles.
const (
	RoleForward    Role = "Forward"
	RoleMidfielder Role = "Midfielder"
	RoleDefender   Role = "Defender"
	RoleGoalkeeper Role = "Goalkeeper"
)

// Short position codes matched as whole tokens.
var roleTokens = map[string]Role{
	"cf": RoleForward, "lw": RoleForward, "rw": RoleForward, "st": RoleForward, "am": RoleForward,
	"cm": RoleMidfielder, "dm": RoleMidfielder, "cam": RoleMidfielder, "amf": RoleMidfielder,
	"mf": RoleMidfielder, "mezzala": RoleMidfielder, "volante": RoleMidfielder,
	"cb": RoleDefender, "rb": RoleDefender, "lb": RoleDefender, "fb": RoleDefender,
	"rwb": RoleDefender, "lwb": RoleDefender,
	"gk": RoleGoalkeeper,
}

// Longer keywords matched anywhere in the position text, in priority order.
var roleKeywords = []struct {
	word string
	role Role
}{
	{"goal", RoleGoalkeeper},
	{"keeper", RoleGoalkeeper},
	{"striker", RoleForward},
	{"forward", RoleForward},
	{"winger", RoleForward},
	{"attacker", RoleForward},
	{"mid", RoleMidfielder},
	{"def", RoleDefender},
	{"back", RoleDefender},
}

// RoleFromPosition maps a position string such as "Left Winger" or "CB" to
// a Role. Unknown positions default to Midfielder.
func RoleFromPosition(position string) Role {
	p := strings.ToLower(strings.TrimSpace(position))
	if p == "" {
		return RoleMidfielder
	}
	for _, tok := range strings.FieldsFunc(p, func(r rune) bool { return !unicode.IsLetter(r) }) {
		if r, ok := roleTokens[tok]; ok {
			return r
		}
	}
	for _, kw := range roleKeywords {
		if strings.Contains(p, kw.word) {
			return kw.role
		}
	}
	return RoleMidfielder
}

// IsStriker reports whether the position names an out-and-out striker,
// which carries its own stamina profile.
func IsStriker(position string) bool {
	p := strings.ToLower(position)
	return strings.Contains(p, "striker") || strings.TrimSpace(p) == "st"
}

// Baseline is the expected workload of a role over a full session.
type Baseline struct {
	DistanceMinM  float64 `json:"distance_min_m"`
	DistanceMaxM  float64 `json:"distance_max_m"`
	SprintSpeedMs float64 `json:"sprint_threshold_mps"`
}

var roleBaselines = map[Role]Baseline{
	RoleForward:    {DistanceMinM: 1800, DistanceMaxM: 2400, SprintSpeedMs: 5.8},
	RoleMidfielder: {DistanceMinM: 2200, DistanceMaxM: 3000, SprintSpeedMs: 5.6},
	RoleDefender:   {DistanceMinM: 1600, DistanceMaxM: 2200, SprintSpeedMs: 5.4},
	RoleGoalkeeper: {DistanceMinM: 900, DistanceMaxM: 1400, SprintSpeedMs: 4.8},
}

// BaselineFor returns the workload baseline of r (Midfielder for unknown roles).
func BaselineFor(r Role) Baseline {
	if b, ok := roleBaselines[r]; ok {
		return b
	}
	return roleBaselines[RoleMidfielder]
}
