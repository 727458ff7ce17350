package quizdto

// GameSummary describes a freshly created game for the start announcement.
type GameSummary struct {
	SessionUUID      string
	Mode             string
	AnswerType       string
	Rounds           int
	TimeLimitSec     int
	SnippetLengthSec int
	ImageDifficulty  string
	Categories       []string
	Versions         []string
	PoolSize         int
}

// MediaRef points at the prepared clue asset for one round. ImagePNG is
// inline for image rounds; AudioPath is an on-disk file for audio rounds
// and must be removed after delivery when Temporary is set.
type MediaRef struct {
	Kind      string
	ImagePNG  []byte
	AudioPath string
	LengthSec float64
	Temporary bool
}

// RoundClue is everything players see when a round opens. The hidden
// attribute (title, artist or level) is never present here.
type RoundClue struct {
	Round        int
	TotalRounds  int
	AnswerType   string
	TimeLimitSec int
	TitleHint    string
}

type RoundStarted struct {
	Clue  RoundClue
	Media *MediaRef
}

// SongReveal is shown whenever a round resolves.
type SongReveal struct {
	Answer    string
	Title     string
	Artist    string
	Version   string
	Level     float64
	Tier      string
	CoverPath string
}

type RoundWon struct {
	Round      int
	PlayerID   string
	Score      int
	ElapsedSec float64
	Reveal     SongReveal
}

type RoundTimeout struct {
	Round  int
	Reveal SongReveal
}

type RoundSkipped struct {
	Round  int
	Reveal SongReveal
}

type RankedEntry struct {
	Rank     int
	PlayerID string
	Score    int
}

type Leaderboard struct {
	Round       int
	TotalRounds int
	Entries     []RankedEntry
}

type GameEnded struct {
	Cancelled       bool
	RoundsPlayed    int
	TotalRounds     int
	Scores          []RankedEntry
	ReplayWindowSec int
}

// PlayerStatsView is the presentation shape of a player's cumulative tally.
type PlayerStatsView struct {
	PlayerID    string
	GamesPlayed int
	RoundsWon   int
	GamesTopped int
}
