// Package stats persists finished quiz games and per-player cumulative
// tallies. Persistence is best-effort: the game flow never depends on it.
package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/domain"
)

var ErrDuplicateGame = errors.New("quiz game already exists")

type Repository interface {
	InsertGame(ctx context.Context, game *domain.QuizGame) (int64, error)
	GetRecentGames(ctx context.Context, channelHash string, limit int) ([]*domain.QuizGame, error)
	AddRoundResults(ctx context.Context, channelHash string, roundsWon map[string]int, topPlayerHash string, playedAt time.Time) error
	GetStats(ctx context.Context, playerHash string, channelHash string) (*domain.PlayerStats, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) InsertGame(ctx context.Context, game *domain.QuizGame) (int64, error) {
	if game == nil {
		return 0, fmt.Errorf("nil quiz game payload")
	}

	const query = `
		INSERT INTO quiz_games (
			session_uuid,
			channel_hash,
			host_hash,
			mode,
			answer_type,
			total_rounds,
			rounds_played,
			participants,
			cancelled,
			started_at,
			ended_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (session_uuid) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err := r.db.QueryRowContext(
		ctx,
		query,
		game.SessionUUID,
		game.ChannelHash,
		game.HostHash,
		game.Mode,
		game.AnswerType,
		game.TotalRounds,
		game.RoundsPlayed,
		game.Participants,
		game.Cancelled,
		game.StartedAt,
		game.EndedAt,
	).Scan(&id)
	if err == sql.ErrNoRows || (err == nil && !id.Valid) {
		return 0, ErrDuplicateGame
	}
	if err != nil {
		return 0, fmt.Errorf("insert quiz game: %w", err)
	}
	return id.Int64, nil
}

func (r *repository) GetRecentGames(ctx context.Context, channelHash string, limit int) ([]*domain.QuizGame, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
		SELECT
			id,
			session_uuid,
			channel_hash,
			host_hash,
			mode,
			answer_type,
			total_rounds,
			rounds_played,
			participants,
			cancelled,
			started_at,
			ended_at
		FROM quiz_games
		WHERE channel_hash = $1
		ORDER BY ended_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, channelHash, limit)
	if err != nil {
		return nil, fmt.Errorf("select quiz games: %w", err)
	}
	defer rows.Close()

	games := make([]*domain.QuizGame, 0, limit)
	for rows.Next() {
		var game domain.QuizGame
		if err := rows.Scan(
			&game.ID,
			&game.SessionUUID,
			&game.ChannelHash,
			&game.HostHash,
			&game.Mode,
			&game.AnswerType,
			&game.TotalRounds,
			&game.RoundsPlayed,
			&game.Participants,
			&game.Cancelled,
			&game.StartedAt,
			&game.EndedAt,
		); err != nil {
			return nil, fmt.Errorf("scan quiz game: %w", err)
		}
		games = append(games, &game)
	}
	return games, rows.Err()
}

// AddRoundResults folds one finished game into the per-player tallies.
// The upsert is additive so no read-modify-write cycle is needed.
func (r *repository) AddRoundResults(ctx context.Context, channelHash string, roundsWon map[string]int, topPlayerHash string, playedAt time.Time) error {
	const query = `
		INSERT INTO quiz_player_stats (
			player_hash,
			channel_hash,
			games_played,
			rounds_won,
			games_topped,
			last_played_at,
			updated_at,
			created_at
		)
		VALUES ($1, $2, 1, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (player_hash, channel_hash)
		DO UPDATE SET
			games_played = quiz_player_stats.games_played + 1,
			rounds_won = quiz_player_stats.rounds_won + EXCLUDED.rounds_won,
			games_topped = quiz_player_stats.games_topped + EXCLUDED.games_topped,
			last_played_at = EXCLUDED.last_played_at,
			updated_at = NOW()`

	for playerHash, won := range roundsWon {
		topped := 0
		if playerHash == topPlayerHash {
			topped = 1
		}
		if _, err := r.db.ExecContext(ctx, query, playerHash, channelHash, won, topped, playedAt); err != nil {
			return fmt.Errorf("upsert quiz stats for %s: %w", playerHash, err)
		}
	}
	return nil
}

func (r *repository) GetStats(ctx context.Context, playerHash string, channelHash string) (*domain.PlayerStats, error) {
	const query = `
		SELECT
			player_hash,
			channel_hash,
			games_played,
			rounds_won,
			games_topped,
			last_played_at,
			updated_at,
			created_at
		FROM quiz_player_stats
		WHERE player_hash = $1 AND channel_hash = $2
		LIMIT 1`

	var stats domain.PlayerStats
	err := r.db.QueryRowContext(ctx, query, playerHash, channelHash).Scan(
		&stats.PlayerHash,
		&stats.ChannelHash,
		&stats.GamesPlayed,
		&stats.RoundsWon,
		&stats.GamesTopped,
		&stats.LastPlayedAt,
		&stats.UpdatedAt,
		&stats.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select quiz stats: %w", err)
	}
	return &stats, nil
}
