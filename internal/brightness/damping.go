package brightness

import "math"

// Schedule is an exponential saturation curve from Floor toward Ceiling:
//
//	damping(n) = Ceiling - (Ceiling - Floor) * exp(-Rate * n)
//
// where n counts the corrections already applied in the current pass.
type Schedule struct {
	Floor   float64
	Ceiling float64
	Rate    float64
}

// NewSchedule picks the rate so the damping sits halfway between floor and
// ceiling after expected/rampFraction corrections.
func NewSchedule(d DampingConfig, expected int) Schedule {
	return Schedule{
		Floor:   d.Floor,
		Ceiling: d.Ceiling,
		Rate:    d.RampFraction * math.Ln2 / float64(expected),
	}
}

// At returns the damping for the n-th correction (0-based).
func (s Schedule) At(n int) float64 {
	return s.Ceiling - (s.Ceiling-s.Floor)*math.Exp(-s.Rate*float64(n))
}
