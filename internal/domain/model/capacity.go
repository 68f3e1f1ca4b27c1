package model

import (
	"math"
	"math/rand"
)

// Defaults used when a physical measurement is missing.
const (
	defaultHeightCm = 175.0
	defaultWeightKg = 70.0
	defaultAge      = 25
)

// Bounds on a physically derived base speed.
const (
	minPhysicalBaseMps = 2.0
	maxPhysicalBaseMps = 5.0
)

// Capacity is a participant's speed envelope in m/s.
type Capacity struct {
	BaseMps   float64 `json:"base_mps"`
	SprintMps float64 `json:"sprint_mps"`
}

type speedBand struct {
	min, max, sprint float64
}

var roleBands = map[Role]speedBand{
	RoleForward:    {min: 2.8, max: 3.3, sprint: 7.0},
	RoleMidfielder: {min: 3.0, max: 3.4, sprint: 6.5},
	RoleDefender:   {min: 2.6, max: 3.0, sprint: 6.0},
	RoleGoalkeeper: {min: 2.8, max: 3.2, sprint: 6.5},
}

// AttributeFactor scales a role band by the 0..100 speed rating.
// An unrated player (0) runs at the band itself.
func AttributeFactor(speedAttr int) float64 {
	if speedAttr <= 0 {
		return 1
	}
	return math.Max(0.5, math.Min(1.5, 0.5+float64(speedAttr)/100))
}

// NewCapacity draws a capacity for p from its role band using rng, scales it
// by the speed rating and, when measurements are known, by the physical
// multiplier.
func NewCapacity(p Player, rng *rand.Rand) Capacity {
	band, ok := roleBands[p.Role()]
	if !ok {
		band = roleBands[RoleMidfielder]
	}
	base := band.min + rng.Float64()*(band.max-band.min)
	k := AttributeFactor(p.Ratings.Speed)
	c := Capacity{BaseMps: base * k, SprintMps: band.sprint * k}
	if p.Physical.Known() {
		m := PhysicalMultiplier(p.Physical)
		c.BaseMps = math.Max(minPhysicalBaseMps, math.Min(maxPhysicalBaseMps, c.BaseMps*m))
		c.SprintMps *= m
	}
	return c
}

// PhysicalMultiplier combines height, BMI and age effects on running speed.
// An average 175 cm, 70 kg, 25 year old player sits close to 1.
func PhysicalMultiplier(ph Physical) float64 {
	h, w, age := withDefaults(ph)
	height := 0.8 + (h-160)*0.004
	bmi := w / ((h / 100) * (h / 100))
	weight := math.Max(0.6, math.Min(1.2, 1.2-math.Abs(bmi-22)*0.05))
	return height * weight * speedAgeFactor(age)
}

func speedAgeFactor(age int) float64 {
	switch {
	case age <= 22:
		return 0.85 + float64(age-18)*0.025
	case age <= 28:
		return 1
	default:
		return math.Max(0.7, 1-float64(age-28)*0.02)
	}
}

func withDefaults(ph Physical) (heightCm, weightKg float64, age int) {
	heightCm, weightKg, age = ph.HeightCm, ph.WeightKg, ph.Age
	if heightCm <= 0 {
		heightCm = defaultHeightCm
	}
	if weightKg <= 0 {
		weightKg = defaultWeightKg
	}
	if age <= 0 {
		age = defaultAge
	}
	return heightCm, weightKg, age
}

// EstimateStamina derives a 50..100 stamina rating from position, age and
// BMI for players whose stamina was never assessed.
func EstimateStamina(p Player, rng *rand.Rand) int {
	lo, hi := 85.0, 95.0
	switch {
	case IsStriker(p.Position):
		lo, hi = 65, 75
	case p.Role() == RoleForward:
		lo, hi = 70, 80
	case p.Role() == RoleDefender:
		lo, hi = 75, 85
	case p.Role() == RoleGoalkeeper:
		lo, hi = 60, 70
	}
	base := lo + rng.Float64()*(hi-lo)

	h, w, age := withDefaults(p.Physical)
	var ageMul float64
	switch {
	case age <= 23:
		ageMul = 0.9 + float64(age-18)*0.02
	case age <= 27:
		ageMul = 1
	default:
		ageMul = math.Max(0.75, 1-float64(age-27)*0.015)
	}
	bmi := w / ((h / 100) * (h / 100))
	bmiMul := math.Max(0.7, math.Min(1.1, 1.1-math.Abs(bmi-22)*0.03))

	return int(math.Max(50, math.Min(100, math.Round(base*ageMul*bmiMul))))
}
