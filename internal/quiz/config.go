package quiz

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidConfig    = errors.New("invalid quiz configuration")
	ErrGameActive       = errors.New("a quiz is already running in this channel")
	ErrNoActiveGame     = errors.New("no quiz is running in this channel")
	ErrNoSongsMatched   = errors.New("no songs match the requested filters")
	ErrNoMediaAvailable = errors.New("no matched song has the required media")
	ErrNotHost          = errors.New("only the host may do that")
	ErrRoundNotActive   = errors.New("no round is currently accepting answers")
	ErrNoReplayOffer    = errors.New("no replay offer is open in this channel")
	ErrReplayUsed       = errors.New("the replay offer was already used")
)

const (
	ModeImage = "image"
	ModeAudio = "audio"

	AnswerTitle      = "title"
	AnswerArtist     = "artist"
	AnswerDifficulty = "difficulty"

	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

const (
	minRounds       = 1
	maxRounds       = 50
	minTimeLimitSec = 10
	maxTimeLimitSec = 300
	minSnippetSec   = 5
	maxSnippetSec   = 30
)

// GameConfig is the host-requested game setup. Category and version
// entries are raw player tokens; resolution against the catalog tables
// happens at game creation so the same config replays identically.
type GameConfig struct {
	Mode             string
	AnswerType       string
	Rounds           int
	TimeLimitSec     int
	SnippetLengthSec int
	ImageDifficulty  string
	Categories       []string
	Versions         []string
}

// applyDefaults fills zero values from the service defaults.
func (c *GameConfig) applyDefaults(d GameDefaults) {
	if strings.TrimSpace(c.Mode) == "" {
		c.Mode = d.Mode
	}
	if strings.TrimSpace(c.AnswerType) == "" {
		c.AnswerType = d.AnswerType
	}
	if c.Rounds == 0 {
		c.Rounds = d.Rounds
	}
	if c.TimeLimitSec == 0 {
		c.TimeLimitSec = d.TimeLimitSec
	}
	if c.SnippetLengthSec == 0 {
		c.SnippetLengthSec = d.SnippetLengthSec
	}
	if strings.TrimSpace(c.ImageDifficulty) == "" {
		c.ImageDifficulty = d.ImageDifficulty
	}
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	c.AnswerType = strings.ToLower(strings.TrimSpace(c.AnswerType))
	c.ImageDifficulty = strings.ToLower(strings.TrimSpace(c.ImageDifficulty))
}

func (c *GameConfig) validate() error {
	switch c.Mode {
	case ModeImage, ModeAudio:
	default:
		return fmt.Errorf("%w: mode must be image or audio, got %q", ErrInvalidConfig, c.Mode)
	}
	switch c.AnswerType {
	case AnswerTitle, AnswerArtist, AnswerDifficulty:
	default:
		return fmt.Errorf("%w: answer type must be title, artist or difficulty, got %q", ErrInvalidConfig, c.AnswerType)
	}
	if c.Rounds < minRounds || c.Rounds > maxRounds {
		return fmt.Errorf("%w: rounds must be %d-%d, got %d", ErrInvalidConfig, minRounds, maxRounds, c.Rounds)
	}
	if c.TimeLimitSec < minTimeLimitSec || c.TimeLimitSec > maxTimeLimitSec {
		return fmt.Errorf("%w: time limit must be %d-%d seconds, got %d", ErrInvalidConfig, minTimeLimitSec, maxTimeLimitSec, c.TimeLimitSec)
	}
	if c.SnippetLengthSec < minSnippetSec || c.SnippetLengthSec > maxSnippetSec {
		return fmt.Errorf("%w: snippet length must be %d-%d seconds, got %d", ErrInvalidConfig, minSnippetSec, maxSnippetSec, c.SnippetLengthSec)
	}
	switch c.ImageDifficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		return fmt.Errorf("%w: image difficulty must be easy, medium or hard, got %q", ErrInvalidConfig, c.ImageDifficulty)
	}
	return nil
}

// clone returns a deep copy so a replay offer is immune to later mutation.
func (c GameConfig) clone() GameConfig {
	out := c
	out.Categories = append([]string(nil), c.Categories...)
	out.Versions = append([]string(nil), c.Versions...)
	return out
}

// GameDefaults are the operator-configured fallbacks for omitted options.
type GameDefaults struct {
	Mode             string
	AnswerType       string
	Rounds           int
	TimeLimitSec     int
	SnippetLengthSec int
	ImageDifficulty  string
}

func DefaultGameDefaults() GameDefaults {
	return GameDefaults{
		Mode:             ModeImage,
		AnswerType:       AnswerTitle,
		Rounds:           5,
		TimeLimitSec:     30,
		SnippetLengthSec: 10,
		ImageDifficulty:  DifficultyEasy,
	}
}
