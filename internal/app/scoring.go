package app

import "time"

const (
	basePoints     = 100
	bonusWindowMs  = 15000
	bonusDivisorMs = 100

	coinsPerCorrect = 10

	// DefaultPowerUnlockScore is the cumulative score at which the power
	// button lights up for a participant, once and for good.
	DefaultPowerUnlockScore = 500
	// DefaultPowerCost is the coin price of one freeze.
	DefaultPowerCost = 50
	// DefaultFreezeDuration is how long a frozen participant stays locked out.
	DefaultFreezeDuration = 5 * time.Second
)

// ScoreResult is the outcome of scoring a single submission.
type ScoreResult struct {
	Points     int
	CoinsDelta int
	NewStreak  int
}

// Score computes points, coin delta, and the new streak for one answer. A
// correct answer earns 100 points plus a speed bonus that decays to zero over
// the first fifteen seconds; a miss resets the streak and earns nothing.
// Pure function so it can be tested away from the broadcast plumbing.
func Score(correct bool, elapsed time.Duration, streak int) ScoreResult {
	if !correct {
		return ScoreResult{}
	}
	bonus := (bonusWindowMs - int(elapsed.Milliseconds())) / bonusDivisorMs
	if bonus < 0 {
		bonus = 0
	}
	return ScoreResult{
		Points:     basePoints + bonus,
		CoinsDelta: coinsPerCorrect,
		NewStreak:  streak + 1,
	}
}
