// Package quiz implements the song-quiz game engine: per-channel
// sessions, the round state machine with cancellable timers, scoring and
// replay. Presentation is pushed out through an Emitter so the engine
// never touches the chat transport.
package quiz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/catalog"
	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/domain"
	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/match"
	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/media"
	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/service/cache"
	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/stats"
	"github.com/park285/MaiQuiz-KakaoTalk-bot/pkg/quizdto"
)

const statsCacheTTL = 10 * time.Minute

// Emitter receives game events for delivery to the channel. Calls arrive
// from timer goroutines as well as command handlers; implementations must
// be safe for concurrent use.
type Emitter interface {
	RoundStarted(channelID string, ev *quizdto.RoundStarted)
	RoundWon(channelID string, ev *quizdto.RoundWon)
	RoundTimeout(channelID string, ev *quizdto.RoundTimeout)
	RoundSkipped(channelID string, ev *quizdto.RoundSkipped)
	GameEnded(channelID string, ev *quizdto.GameEnded)
}

type Config struct {
	Defaults     GameDefaults
	StartDelay   time.Duration
	RoundDelay   time.Duration
	SkipDelay    time.Duration
	ReplayWindow time.Duration
}

type replayOffer struct {
	hostID string
	cfg    GameConfig
	used   bool
	expiry *TimerToken
}

type Service struct {
	registry *Registry
	catalog  *catalog.Store
	cropper  *media.Cropper
	clipper  *media.Clipper
	recent   *RecentStore
	repo     stats.Repository
	cache    *cache.CacheService
	emitter  Emitter
	cfg      Config
	logger   *zap.Logger

	replayMu sync.Mutex
	replays  map[string]*replayOffer
}

func NewService(catalogStore *catalog.Store, cropper *media.Cropper, clipper *media.Clipper, cacheSvc *cache.CacheService, repo stats.Repository, recent *RecentStore, emitter Emitter, cfg Config, logger *zap.Logger) (*Service, error) {
	if catalogStore == nil {
		return nil, errors.New("quiz service requires a catalog store")
	}
	if emitter == nil {
		return nil, errors.New("quiz service requires an emitter")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cropper == nil {
		cropper = media.NewCropper(logger)
	}
	if clipper == nil {
		clipper = media.NewClipper("", "", "", logger)
	}
	if repo == nil {
		repo = stats.NewMemoryRepository()
	}
	if cfg.Defaults == (GameDefaults{}) {
		cfg.Defaults = DefaultGameDefaults()
	}
	if cfg.StartDelay <= 0 {
		cfg.StartDelay = 3 * time.Second
	}
	if cfg.RoundDelay <= 0 {
		cfg.RoundDelay = 3 * time.Second
	}
	if cfg.SkipDelay <= 0 {
		cfg.SkipDelay = 2 * time.Second
	}
	if cfg.ReplayWindow <= 0 {
		cfg.ReplayWindow = 60 * time.Second
	}
	return &Service{
		registry: NewRegistry(),
		catalog:  catalogStore,
		cropper:  cropper,
		clipper:  clipper,
		recent:   recent,
		repo:     repo,
		cache:    cacheSvc,
		emitter:  emitter,
		cfg:      cfg,
		logger:   logger,
		replays:  make(map[string]*replayOffer),
	}, nil
}

// StartGame validates the request, builds the song queue and schedules the
// first round. Exactly one of the racing start commands for a channel can
// succeed; every failure releases the creation claim.
func (s *Service) StartGame(ctx context.Context, channelID, hostID string, req GameConfig) (*quizdto.GameSummary, error) {
	cfg := req.clone()
	cfg.applyDefaults(s.cfg.Defaults)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cats, invalid := catalog.ResolveCategories(cfg.Categories)
	if len(invalid) > 0 {
		return nil, fmt.Errorf("%w: unknown categories: %s", ErrInvalidConfig, strings.Join(invalid, ", "))
	}
	vers := catalog.ResolveVersions(cfg.Versions)

	if !s.registry.TryBeginCreate(channelID) {
		return nil, ErrGameActive
	}
	committed := false
	defer func() {
		if !committed {
			s.registry.AbortCreate(channelID)
		}
	}()

	songs, err := s.catalog.Load(catalog.Filter{Categories: cats, Versions: vers})
	if err != nil {
		return nil, err
	}
	if len(songs) == 0 {
		return nil, ErrNoSongsMatched
	}
	playable := s.catalog.FilterPlayable(songs, cfg.Mode)
	if len(playable) == 0 {
		return nil, ErrNoMediaAvailable
	}

	queue := s.buildQueue(ctx, channelID, playable, cfg.Rounds)

	sessCfg := cfg.clone()
	sessCfg.Rounds = len(queue)
	sess := newSession(channelID, hostID, sessCfg, queue)
	sess.origCfg = cfg.clone()
	s.registry.Commit(channelID, sess)
	committed = true

	s.logger.Info("quiz game created",
		zap.String("channel", hashString(channelID)),
		zap.String("session", sess.uuid),
		zap.String("mode", cfg.Mode),
		zap.String("answer_type", cfg.AnswerType),
		zap.Int("rounds", len(queue)),
		zap.Int("pool", len(playable)),
	)

	token := Arm(s.cfg.StartDelay, func() { s.startRound(sess) })
	if !sess.setIdleTimer(token) {
		token.Cancel()
	}

	return &quizdto.GameSummary{
		SessionUUID:      sess.uuid,
		Mode:             cfg.Mode,
		AnswerType:       cfg.AnswerType,
		Rounds:           len(queue),
		TimeLimitSec:     cfg.TimeLimitSec,
		SnippetLengthSec: cfg.SnippetLengthSec,
		ImageDifficulty:  cfg.ImageDifficulty,
		Categories:       cats,
		Versions:         vers,
		PoolSize:         len(playable),
	}, nil
}

// buildQueue shuffles the playable pool and cuts it to the round count.
// Songs heard recently in the channel are avoided when enough fresh ones
// remain; the requested rounds clamp down to the pool size.
func (s *Service) buildQueue(ctx context.Context, channelID string, pool []domain.SongRecord, rounds int) []domain.SongRecord {
	candidates := append([]domain.SongRecord(nil), pool...)
	if recent := s.recent.Recent(ctx, channelID); len(recent) > 0 {
		fresh := make([]domain.SongRecord, 0, len(candidates))
		for _, song := range candidates {
			if _, heard := recent[song.SongID]; !heard {
				fresh = append(fresh, song)
			}
		}
		if len(fresh) >= rounds {
			candidates = fresh
		}
	}
	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if rounds > len(candidates) {
		rounds = len(candidates)
	}
	return candidates[:rounds]
}

// SubmitGuess evaluates free chat against the open round. It returns true
// only for the single guess that wins the round; everything else,
// including guesses racing a resolution, returns false with no error.
func (s *Service) SubmitGuess(ctx context.Context, channelID, playerID, text string) (bool, error) {
	sess := s.registry.Get(channelID)
	if sess == nil {
		return false, nil
	}
	song, round, ok := sess.currentRound()
	if !ok {
		return false, nil
	}
	if !matchesAnswer(text, song, sess.cfg.AnswerType) {
		return false, nil
	}
	song, score, elapsed, ok := sess.ResolveWin(round, playerID)
	if !ok {
		return false, nil
	}
	s.logger.Info("round won",
		zap.String("channel", hashString(channelID)),
		zap.Int("round", round),
		zap.String("player", hashString(playerID)),
		zap.Duration("elapsed", elapsed),
	)
	s.emitter.RoundWon(channelID, &quizdto.RoundWon{
		Round:      round,
		PlayerID:   playerID,
		Score:      score,
		ElapsedSec: elapsed.Seconds(),
		Reveal:     s.reveal(song, sess.cfg.AnswerType),
	})
	s.scheduleNext(sess, s.cfg.RoundDelay)
	return true, nil
}

// Skip lets the host close the open round without a winner.
func (s *Service) Skip(ctx context.Context, channelID, requesterID string) error {
	sess := s.registry.Get(channelID)
	if sess == nil {
		return ErrNoActiveGame
	}
	if requesterID != sess.hostID {
		return ErrNotHost
	}
	song, ok := sess.Resolve(-1)
	if !ok {
		return ErrRoundNotActive
	}
	round, _ := sess.progress()
	s.logger.Info("round skipped", zap.String("channel", hashString(channelID)), zap.Int("round", round))
	s.emitter.RoundSkipped(channelID, &quizdto.RoundSkipped{
		Round:  round,
		Reveal: s.reveal(song, sess.cfg.AnswerType),
	})
	s.scheduleNext(sess, s.cfg.SkipDelay)
	return nil
}

// Stop lets the host cancel the whole game immediately.
func (s *Service) Stop(ctx context.Context, channelID, requesterID string) error {
	sess := s.registry.Get(channelID)
	if sess == nil {
		return ErrNoActiveGame
	}
	if requesterID != sess.hostID {
		return ErrNotHost
	}
	s.endGame(ctx, sess, true)
	return nil
}

// Leaderboard returns the live standings for the channel's game.
func (s *Service) Leaderboard(ctx context.Context, channelID string) (*quizdto.Leaderboard, error) {
	sess := s.registry.Get(channelID)
	if sess == nil {
		return nil, ErrNoActiveGame
	}
	round, total := sess.progress()
	return &quizdto.Leaderboard{
		Round:       round,
		TotalRounds: total,
		Entries:     sess.leaderboard(),
	}, nil
}

// Replay starts a new game from the previous game's configuration. The
// offer is host-only, single-use and expires shortly after the game ends.
func (s *Service) Replay(ctx context.Context, channelID, requesterID string) (*quizdto.GameSummary, error) {
	s.replayMu.Lock()
	offer := s.replays[channelID]
	if offer == nil {
		s.replayMu.Unlock()
		return nil, ErrNoReplayOffer
	}
	if offer.hostID != requesterID {
		s.replayMu.Unlock()
		return nil, ErrNotHost
	}
	if offer.used {
		s.replayMu.Unlock()
		return nil, ErrReplayUsed
	}
	offer.used = true
	cfg := offer.cfg.clone()
	s.replayMu.Unlock()

	return s.StartGame(ctx, channelID, requesterID, cfg)
}

// PlayerStats reads a player's cumulative tally, cache first.
func (s *Service) PlayerStats(ctx context.Context, channelID, playerID string) (*quizdto.PlayerStatsView, error) {
	playerHash := hashString(playerID)
	channelHash := hashString(channelID)
	key := statsCacheKey(playerHash, channelHash)

	if s.cache != nil {
		var cached domain.PlayerStats
		if err := s.cache.Get(ctx, key, &cached); err == nil && cached.PlayerHash != "" {
			return statsView(playerID, &cached), nil
		}
	}

	st, err := s.repo.GetStats(ctx, playerHash, channelHash)
	if err != nil {
		return nil, fmt.Errorf("load quiz stats: %w", err)
	}
	if st == nil {
		return nil, nil
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, st, statsCacheTTL); err != nil {
			s.logger.Warn("stats cache write failed", zap.Error(err))
		}
	}
	return statsView(playerID, st), nil
}

func (s *Service) startRound(sess *Session) {
	if s.registry.Get(sess.channelID) != sess {
		return
	}
	song, round, ok := sess.beginRound()
	if !ok {
		s.endGame(context.Background(), sess, false)
		return
	}

	ev := &quizdto.RoundStarted{
		Clue: quizdto.RoundClue{
			Round:        round,
			TotalRounds:  sess.cfg.Rounds,
			AnswerType:   sess.cfg.AnswerType,
			TimeLimitSec: sess.cfg.TimeLimitSec,
			TitleHint:    titleHint(song, sess.cfg.AnswerType),
		},
	}
	ev.Media = s.prepareMedia(song, sess.cfg)
	s.emitter.RoundStarted(sess.channelID, ev)

	token := Arm(time.Duration(sess.cfg.TimeLimitSec)*time.Second, func() { s.onTimeout(sess, round) })
	if !sess.armTimer(round, token) {
		// round resolved while the clue was being delivered
		token.Cancel()
	}
}

func (s *Service) onTimeout(sess *Session, round int) {
	if s.registry.Get(sess.channelID) != sess {
		return
	}
	song, ok := sess.Resolve(round)
	if !ok {
		return
	}
	s.logger.Info("round timed out", zap.String("channel", hashString(sess.channelID)), zap.Int("round", round))
	s.emitter.RoundTimeout(sess.channelID, &quizdto.RoundTimeout{
		Round:  round,
		Reveal: s.reveal(song, sess.cfg.AnswerType),
	})
	s.scheduleNext(sess, s.cfg.RoundDelay)
}

func (s *Service) scheduleNext(sess *Session, delay time.Duration) {
	token := Arm(delay, func() { s.startRound(sess) })
	if !sess.setIdleTimer(token) {
		token.Cancel()
	}
}

func (s *Service) endGame(ctx context.Context, sess *Session, cancelled bool) {
	roundsPlayed, played, scores, ok := sess.finish()
	if !ok {
		return
	}
	board := sess.leaderboard()
	s.registry.End(sess.channelID)
	s.offerReplay(sess.channelID, sess.hostID, sess.origCfg)

	s.recent.Record(ctx, sess.channelID, played)
	s.persistResults(ctx, sess, roundsPlayed, scores, board, cancelled)

	s.emitter.GameEnded(sess.channelID, &quizdto.GameEnded{
		Cancelled:       cancelled,
		RoundsPlayed:    roundsPlayed,
		TotalRounds:     sess.cfg.Rounds,
		Scores:          board,
		ReplayWindowSec: int(s.cfg.ReplayWindow.Seconds()),
	})

	s.logger.Info("quiz game ended",
		zap.String("channel", hashString(sess.channelID)),
		zap.String("session", sess.uuid),
		zap.Bool("cancelled", cancelled),
		zap.Int("rounds_played", roundsPlayed),
		zap.Int("participants", len(scores)),
	)
}

func (s *Service) offerReplay(channelID, hostID string, cfg GameConfig) {
	s.replayMu.Lock()
	defer s.replayMu.Unlock()
	if prev := s.replays[channelID]; prev != nil {
		prev.expiry.Cancel()
	}
	offer := &replayOffer{hostID: hostID, cfg: cfg.clone()}
	offer.expiry = Arm(s.cfg.ReplayWindow, func() {
		s.replayMu.Lock()
		if s.replays[channelID] == offer {
			delete(s.replays, channelID)
		}
		s.replayMu.Unlock()
	})
	s.replays[channelID] = offer
}

// persistResults writes the game record and tallies. Best-effort: every
// failure is logged and swallowed so persistence never affects play.
func (s *Service) persistResults(ctx context.Context, sess *Session, roundsPlayed int, scores map[string]int, board []quizdto.RankedEntry, cancelled bool) {
	channelHash := hashString(sess.channelID)
	game := &domain.QuizGame{
		SessionUUID:  sess.uuid,
		ChannelHash:  channelHash,
		HostHash:     hashString(sess.hostID),
		Mode:         sess.cfg.Mode,
		AnswerType:   sess.cfg.AnswerType,
		TotalRounds:  sess.cfg.Rounds,
		RoundsPlayed: roundsPlayed,
		Participants: len(scores),
		Cancelled:    cancelled,
		StartedAt:    sess.startedAt,
		EndedAt:      time.Now(),
	}
	if _, err := s.repo.InsertGame(ctx, game); err != nil && !errors.Is(err, stats.ErrDuplicateGame) {
		s.logger.Warn("quiz game persist failed", zap.Error(err))
	}
	if len(scores) == 0 {
		return
	}
	hashed := make(map[string]int, len(scores))
	for player, won := range scores {
		hashed[hashString(player)] = won
	}
	top := ""
	if len(board) > 0 {
		top = hashString(board[0].PlayerID)
	}
	if err := s.repo.AddRoundResults(ctx, channelHash, hashed, top, game.EndedAt); err != nil {
		s.logger.Warn("quiz stats persist failed", zap.Error(err))
	}
	if s.cache != nil {
		for player := range scores {
			_ = s.cache.Del(ctx, statsCacheKey(hashString(player), channelHash))
		}
	}
}

func (s *Service) prepareMedia(song domain.SongRecord, cfg GameConfig) *quizdto.MediaRef {
	switch cfg.Mode {
	case ModeAudio:
		path, ok := s.catalog.AudioPath(song)
		if !ok {
			s.logger.Warn("audio asset missing", zap.String("song", song.SongID))
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		clip, err := s.clipper.Snippet(ctx, path, cfg.SnippetLengthSec)
		if err != nil {
			s.logger.Warn("audio snippet failed", zap.String("song", song.SongID), zap.Error(err))
			return &quizdto.MediaRef{Kind: ModeAudio, AudioPath: path}
		}
		return &quizdto.MediaRef{
			Kind:      ModeAudio,
			AudioPath: clip.Path,
			LengthSec: clip.LengthSec,
			Temporary: clip.Temporary,
		}
	default:
		path, ok := s.catalog.ImagePath(song)
		if !ok {
			s.logger.Warn("cover asset missing", zap.String("song", song.SongID))
			return nil
		}
		clue, err := s.cropper.RenderClue(path, cfg.ImageDifficulty)
		if err != nil {
			s.logger.Warn("cover clue failed", zap.String("song", song.SongID), zap.Error(err))
			return nil
		}
		return &quizdto.MediaRef{Kind: ModeImage, ImagePNG: clue}
	}
}

func (s *Service) reveal(song domain.SongRecord, answerType string) quizdto.SongReveal {
	coverPath, _ := s.catalog.ImagePath(song)
	return quizdto.SongReveal{
		Answer:    answerText(song, answerType),
		Title:     song.Title,
		Artist:    song.Artist,
		Version:   song.Version,
		Level:     song.Level,
		Tier:      song.Tier,
		CoverPath: coverPath,
	}
}

func matchesAnswer(guess string, song domain.SongRecord, answerType string) bool {
	switch answerType {
	case AnswerArtist:
		return match.Text(guess, song.Artist)
	case AnswerDifficulty:
		return match.Level(guess, song.Level)
	default:
		return match.Text(guess, song.Title, song.Romaji, song.English)
	}
}

// answerText composes the reveal line: titles join native/romaji/english
// skipping duplicates, difficulty shows the level with its tier.
func answerText(song domain.SongRecord, answerType string) string {
	switch answerType {
	case AnswerArtist:
		return song.Artist
	case AnswerDifficulty:
		return fmt.Sprintf("%.1f (%s)", song.Level, song.Tier)
	default:
		parts := []string{song.Title}
		if song.Romaji != "" && !strings.EqualFold(song.Romaji, song.Title) {
			parts = append(parts, song.Romaji)
		}
		if song.English != "" && !strings.EqualFold(song.English, song.Title) && !strings.EqualFold(song.English, song.Romaji) {
			parts = append(parts, "("+song.English+")")
		}
		return strings.Join(parts, " / ")
	}
}

// titleHint gives artist rounds something to go on: the song is named, the
// artist is the secret.
func titleHint(song domain.SongRecord, answerType string) string {
	if answerType != AnswerArtist {
		return ""
	}
	if song.Romaji != "" {
		return song.Romaji
	}
	return song.Title
}

func statsCacheKey(playerHash, channelHash string) string {
	return "quiz:stats:" + playerHash + ":" + channelHash
}

func statsView(playerID string, st *domain.PlayerStats) *quizdto.PlayerStatsView {
	return &quizdto.PlayerStatsView{
		PlayerID:    playerID,
		GamesPlayed: st.GamesPlayed,
		RoundsWon:   st.RoundsWon,
		GamesTopped: st.GamesTopped,
	}
}

func hashString(v string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(v)))
	return hex.EncodeToString(sum[:])
}
