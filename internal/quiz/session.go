package quiz

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/domain"
	"github.com/park285/MaiQuiz-KakaoTalk-bot/pkg/quizdto"
)

// Session is one live game in one channel. All mutation goes through the
// methods below; the answered latch guarantees every round resolves
// exactly once no matter how guess, timeout and skip interleave.
type Session struct {
	mu sync.Mutex

	channelID string
	hostID    string
	uuid      string
	cfg       GameConfig
	origCfg   GameConfig // as requested, before round clamping; replays use this

	queue  []domain.SongRecord
	played []string

	round      int // 1-based, 0 before the first round
	current    *domain.SongRecord
	roundStart time.Time
	answered   bool
	timer      *TimerToken

	scores     map[string]int
	scoreOrder []string

	startedAt time.Time
	ended     bool
}

func newSession(channelID, hostID string, cfg GameConfig, queue []domain.SongRecord) *Session {
	return &Session{
		channelID: channelID,
		hostID:    hostID,
		uuid:      uuid.NewString(),
		cfg:       cfg,
		queue:     queue,
		scores:    make(map[string]int),
		startedAt: time.Now(),
	}
}

// beginRound advances to the next song and opens it for guesses. It
// returns false when the queue is exhausted or the game already ended.
func (s *Session) beginRound() (domain.SongRecord, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended || s.round >= len(s.queue) {
		return domain.SongRecord{}, 0, false
	}
	s.round++
	song := s.queue[s.round-1]
	s.current = &song
	s.answered = false
	s.roundStart = time.Now()
	s.played = append(s.played, song.SongID)
	return song, s.round, true
}

// armTimer installs the timeout token for the given round. It refuses the
// token when the round already resolved, so the caller must cancel it.
func (s *Session) armTimer(round int, t *TimerToken) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended || s.answered || s.round != round {
		return false
	}
	s.timer = t
	return true
}

// setIdleTimer installs a between-rounds scheduler token so Stop can
// cancel a pending start. Refused once the game ended.
func (s *Session) setIdleTimer(t *TimerToken) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return false
	}
	s.timer = t
	return true
}

// resolveLocked flips the answered latch. round < 0 targets whatever round
// is current. Only the first caller per round gets ok=true.
func (s *Session) resolveLocked(round int) (domain.SongRecord, bool) {
	if s.ended || s.answered || s.current == nil {
		return domain.SongRecord{}, false
	}
	if round >= 0 && s.round != round {
		return domain.SongRecord{}, false
	}
	s.answered = true
	if s.timer != nil {
		s.timer.Cancel()
		s.timer = nil
	}
	return *s.current, true
}

// Resolve closes the current round without a winner (timeout or skip).
func (s *Session) Resolve(round int) (domain.SongRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(round)
}

// ResolveWin closes the round crediting playerID. The score increments by
// exactly one regardless of how many matching guesses raced.
func (s *Session) ResolveWin(round int, playerID string) (song domain.SongRecord, score int, elapsed time.Duration, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	song, ok = s.resolveLocked(round)
	if !ok {
		return domain.SongRecord{}, 0, 0, false
	}
	if _, seen := s.scores[playerID]; !seen {
		s.scoreOrder = append(s.scoreOrder, playerID)
	}
	s.scores[playerID]++
	return song, s.scores[playerID], time.Since(s.roundStart), true
}

// currentRound snapshots the open round for guess evaluation. ok is false
// between rounds and after the game ends.
func (s *Session) currentRound() (song domain.SongRecord, round int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended || s.answered || s.current == nil {
		return domain.SongRecord{}, 0, false
	}
	return *s.current, s.round, true
}

// finish marks the session ended and returns its closing snapshot.
// Idempotent: only the first caller gets ok=true.
func (s *Session) finish() (roundsPlayed int, played []string, scores map[string]int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return 0, nil, nil, false
	}
	s.ended = true
	if s.timer != nil {
		s.timer.Cancel()
		s.timer = nil
	}
	scores = make(map[string]int, len(s.scores))
	for k, v := range s.scores {
		scores[k] = v
	}
	return s.round, append([]string(nil), s.played...), scores, true
}

// leaderboard returns entries sorted by score descending. Ties keep the
// order players first scored in, which is stable but otherwise arbitrary.
func (s *Session) leaderboard() []quizdto.RankedEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leaderboardLocked()
}

func (s *Session) leaderboardLocked() []quizdto.RankedEntry {
	entries := make([]quizdto.RankedEntry, 0, len(s.scoreOrder))
	for _, player := range s.scoreOrder {
		entries = append(entries, quizdto.RankedEntry{PlayerID: player, Score: s.scores[player]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func (s *Session) progress() (round, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round, len(s.queue)
}
