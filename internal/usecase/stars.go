package usecase

import "time"

// MaxStars caps the rating of a won level.
const MaxStars = 5

// StarInputs is the state a victory is scored from.
type StarInputs struct {
	TimeLimit      time.Duration // 0 = no limit
	TimeLeft       time.Duration
	TimeBonus      float64
	StartEnergy    int
	Energy         int
	EnergyBonus    float64
	Connections    int
	MaxConnections int // 0 = no cap
	Paths          int // simple start->finish paths
}

// ScoreStars rates a win: one star for winning, then one each for time left,
// energy left, staying under the connection cap, and having a backup path.
func ScoreStars(in StarInputs) int {
	stars := 1

	if in.TimeLimit > 0 {
		if float64(in.TimeLeft)/float64(in.TimeLimit) >= in.TimeBonus {
			stars++
		}
	}

	if in.StartEnergy > 0 {
		if float64(in.Energy)/float64(in.StartEnergy) >= in.EnergyBonus {
			stars++
		}
	}

	if in.MaxConnections > 0 && in.Connections <= in.MaxConnections {
		stars++
	}

	if in.Paths >= 2 {
		stars++
	}

	if stars > MaxStars {
		stars = MaxStars
	}
	return stars
}
