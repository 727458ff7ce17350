package stats

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/domain"
)

// memrepo is a development-only in-memory repository used when no DB is configured.
type memrepo struct {
	mu sync.RWMutex

	nextID int64

	gamesByChannel map[string][]*domain.QuizGame
	gamesBySession map[string]*domain.QuizGame

	stats map[string]*domain.PlayerStats // playerHash|channelHash
}

func NewMemoryRepository() Repository {
	return &memrepo{
		gamesByChannel: make(map[string][]*domain.QuizGame),
		gamesBySession: make(map[string]*domain.QuizGame),
		stats:          make(map[string]*domain.PlayerStats),
	}
}

func (m *memrepo) InsertGame(ctx context.Context, game *domain.QuizGame) (int64, error) {
	if game == nil {
		return 0, ErrDuplicateGame
	}
	key := strings.TrimSpace(game.SessionUUID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.gamesBySession[key]; exists {
		return 0, ErrDuplicateGame
	}

	m.nextID++
	stored := *game
	stored.ID = m.nextID

	m.gamesBySession[key] = &stored
	m.gamesByChannel[game.ChannelHash] = append(m.gamesByChannel[game.ChannelHash], &stored)
	return stored.ID, nil
}

func (m *memrepo) GetRecentGames(ctx context.Context, channelHash string, limit int) ([]*domain.QuizGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.gamesByChannel[channelHash]
	if len(list) == 0 {
		return []*domain.QuizGame{}, nil
	}
	items := append([]*domain.QuizGame(nil), list...)
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memrepo) AddRoundResults(ctx context.Context, channelHash string, roundsWon map[string]int, topPlayerHash string, playedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for playerHash, won := range roundsWon {
		key := m.statsKey(playerHash, channelHash)
		s, ok := m.stats[key]
		if !ok {
			s = &domain.PlayerStats{
				PlayerHash:  playerHash,
				ChannelHash: channelHash,
				CreatedAt:   now,
			}
			m.stats[key] = s
		}
		s.GamesPlayed++
		s.RoundsWon += won
		if playerHash == topPlayerHash {
			s.GamesTopped++
		}
		s.LastPlayedAt = playedAt
		s.UpdatedAt = now
	}
	return nil
}

func (m *memrepo) GetStats(ctx context.Context, playerHash string, channelHash string) (*domain.PlayerStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.stats[m.statsKey(playerHash, channelHash)]; ok && s != nil {
		copied := *s
		return &copied, nil
	}
	return nil, nil
}

func (m *memrepo) statsKey(playerHash, channelHash string) string {
	return strings.TrimSpace(playerHash) + "|" + strings.TrimSpace(channelHash)
}
