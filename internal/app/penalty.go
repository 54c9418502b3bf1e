package app

import "time"

const (
	firstPenaltyDuration  = 10 * time.Minute
	repeatPenaltyDuration = 30 * time.Minute
)

// penaltyFor escalates a user's no-show penalty from the count held before
// this offense.
func penaltyFor(previousCount int, now time.Time) (count int, until time.Time) {
	d := repeatPenaltyDuration
	if previousCount <= 0 {
		d = firstPenaltyDuration
	}
	return previousCount + 1, now.Add(d)
}
