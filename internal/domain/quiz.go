package domain

import "time"

// SongRecord is one deduplicated catalog entry (one row per song id,
// master/remaster chart with the highest level wins).
type SongRecord struct {
	SongID   string  `json:"song_id"`
	Title    string  `json:"title"`
	Romaji   string  `json:"romaji,omitempty"`
	English  string  `json:"english,omitempty"`
	Artist   string  `json:"artist"`
	Category string  `json:"category"`
	Version  string  `json:"version"`
	Tier     string  `json:"difficulty"`
	Level    float64 `json:"level"`
	Image    string  `json:"image,omitempty"`
}

// QuizGame is a finished (or cancelled) game persisted for history.
type QuizGame struct {
	ID           int64
	SessionUUID  string
	ChannelHash  string
	HostHash     string
	Mode         string
	AnswerType   string
	TotalRounds  int
	RoundsPlayed int
	Participants int
	Cancelled    bool
	StartedAt    time.Time
	EndedAt      time.Time
}

// PlayerStats is the cumulative per-player, per-channel tally.
type PlayerStats struct {
	PlayerHash   string    `json:"player_hash"`
	ChannelHash  string    `json:"channel_hash"`
	GamesPlayed  int       `json:"games_played"`
	RoundsWon    int       `json:"rounds_won"`
	GamesTopped  int       `json:"games_topped"`
	LastPlayedAt time.Time `json:"last_played_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
