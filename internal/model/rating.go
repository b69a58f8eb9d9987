package model

import "math"

const (
	DefaultMinVotes = 300.0
	BaselineMovie   = 6.8
	BaselineSeries  = 7.2
)

// WeightedRating shrinks rating r with v votes toward baseline c using m pseudo-votes.
func WeightedRating(r float64, v int, c, m float64) float64 {
	votes := float64(v)
	if votes < 0 {
		votes = 0
	}
	if votes+m == 0 {
		return c
	}
	return votes/(votes+m)*r + m/(votes+m)*c
}

func Normalize(value, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	return math.Max(0, math.Min(1, (value-lo)/(hi-lo)))
}

// QualityMultiplier scales profile similarity by vote volume, weighted rating and source.
func QualityMultiplier(wr float64, votes int, ranked, fresh bool) float64 {
	m := 1.0
	switch {
	case votes < 50:
		m *= 0.6
	case votes < 150:
		m *= 0.85
	}

	switch {
	case wr < 5.5:
		m *= 0.5
	case wr < 6.0:
		m *= 0.7
	case wr >= 7.0 && votes >= 500:
		m *= 1.10
	}

	if ranked {
		switch {
		case wr >= 6.5 && votes >= 200:
			m *= 1.25
		case wr >= 6.0 && votes >= 100:
			m *= 1.10
		}
	}

	if fresh && wr >= 7.0 && votes >= 300 {
		m *= 1.10
	}
	return m
}
