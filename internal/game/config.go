package game

// Config holds the per-match rules. It is chosen at match creation and
// frozen when the first game starts.
type Config struct {
	HintEnabled bool `json:"hintEnabled"`
	TargetScore int  `json:"targetScore"`
	MaxRounds   int  `json:"maxRounds"`
}

const (
	// MaxTurns is the number of vote-and-tally cycles a round can last.
	MaxTurns = 3

	defaultTargetScore = 15
	defaultMaxRounds   = 3

	// impostorHistorySize bounds the most-recent-first impostor queue used
	// for anti-repetition.
	impostorHistorySize = 10
)

// DefaultConfig returns the default match configuration.
func DefaultConfig() Config {
	return Config{
		HintEnabled: true,
		TargetScore: defaultTargetScore,
		MaxRounds:   defaultMaxRounds,
	}
}
