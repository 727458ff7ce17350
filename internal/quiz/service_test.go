package quiz

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/catalog"
	"github.com/park285/MaiQuiz-KakaoTalk-bot/pkg/quizdto"
)

type recordingEmitter struct {
	mu       sync.Mutex
	events   chan string
	started  []*quizdto.RoundStarted
	won      []*quizdto.RoundWon
	timeouts []*quizdto.RoundTimeout
	skipped  []*quizdto.RoundSkipped
	ended    []*quizdto.GameEnded
}

func newRecordingEmitter() *recordingEmitter {
	return &recordingEmitter{events: make(chan string, 64)}
}

func (e *recordingEmitter) RoundStarted(channelID string, ev *quizdto.RoundStarted) {
	e.mu.Lock()
	e.started = append(e.started, ev)
	e.mu.Unlock()
	e.events <- "started"
}

func (e *recordingEmitter) RoundWon(channelID string, ev *quizdto.RoundWon) {
	e.mu.Lock()
	e.won = append(e.won, ev)
	e.mu.Unlock()
	e.events <- "won"
}

func (e *recordingEmitter) RoundTimeout(channelID string, ev *quizdto.RoundTimeout) {
	e.mu.Lock()
	e.timeouts = append(e.timeouts, ev)
	e.mu.Unlock()
	e.events <- "timeout"
}

func (e *recordingEmitter) RoundSkipped(channelID string, ev *quizdto.RoundSkipped) {
	e.mu.Lock()
	e.skipped = append(e.skipped, ev)
	e.mu.Unlock()
	e.events <- "skipped"
}

func (e *recordingEmitter) GameEnded(channelID string, ev *quizdto.GameEnded) {
	e.mu.Lock()
	e.ended = append(e.ended, ev)
	e.mu.Unlock()
	e.events <- "ended"
}

// wait blocks until the named event arrives, discarding others.
func (e *recordingEmitter) wait(t *testing.T, tag string) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case got := <-e.events:
			if got == tag {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q event", tag)
		}
	}
}

func (e *recordingEmitter) lastStarted(t *testing.T) *quizdto.RoundStarted {
	t.Helper()
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.started) == 0 {
		t.Fatal("no round-started events recorded")
	}
	return e.started[len(e.started)-1]
}

func (e *recordingEmitter) lastEnded(t *testing.T) *quizdto.GameEnded {
	t.Helper()
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.ended) == 0 {
		t.Fatal("no game-ended events recorded")
	}
	return e.ended[len(e.ended)-1]
}

const serviceTestData = `[
  {"song_id": "s1", "title": "Brain Power", "artist": "NOMA", "category": "maimai", "version": "PRiSM", "difficulty": "master", "level": 12.4, "image": "s1.png"},
  {"song_id": "s2", "title": "Freedom Dive", "artist": "xi", "category": "maimai", "version": "PRiSM", "difficulty": "master", "level": 13.7, "image": "s2.png"},
  {"song_id": "s3", "title": "Ultimate Truth", "artist": "Kai", "category": "東方Project", "version": "FESTiVAL", "difficulty": "remaster", "level": 11.2, "image": "s3.png"}
]`

func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create png: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
}

func newTestService(t *testing.T) (*Service, *recordingEmitter) {
	t.Helper()
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "output.json")
	if err := os.WriteFile(dataPath, []byte(serviceTestData), 0o644); err != nil {
		t.Fatalf("write data: %v", err)
	}
	imageDir := filepath.Join(dir, "images")
	audioDir := filepath.Join(dir, "audio")
	for _, d := range []string{imageDir, audioDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	for _, name := range []string{"s1.png", "s2.png", "s3.png"} {
		writeTestPNG(t, filepath.Join(imageDir, name))
	}

	store := catalog.NewStore(dataPath, imageDir, audioDir, nil)
	emitter := newRecordingEmitter()
	svc, err := NewService(store, nil, nil, nil, nil, nil, emitter, Config{
		Defaults: GameDefaults{
			Mode:             ModeImage,
			AnswerType:       AnswerTitle,
			Rounds:           2,
			TimeLimitSec:     30,
			SnippetLengthSec: 10,
			ImageDifficulty:  DifficultyEasy,
		},
		StartDelay:   10 * time.Millisecond,
		RoundDelay:   10 * time.Millisecond,
		SkipDelay:    10 * time.Millisecond,
		ReplayWindow: 150 * time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, emitter
}

func TestFullGameWinFlow(t *testing.T) {
	svc, em := newTestService(t)
	ctx := context.Background()

	sum, err := svc.StartGame(ctx, "room", "host", GameConfig{Rounds: 2})
	if err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if sum.Rounds != 2 || sum.Mode != ModeImage || sum.AnswerType != AnswerTitle {
		t.Fatalf("summary mismatch: %+v", sum)
	}

	em.wait(t, "started")
	clue := em.lastStarted(t)
	if clue.Clue.Round != 1 || clue.Clue.TotalRounds != 2 {
		t.Fatalf("round 1 clue mismatch: %+v", clue.Clue)
	}
	if clue.Media == nil || clue.Media.Kind != ModeImage || len(clue.Media.ImagePNG) == 0 {
		t.Fatal("round 1 should carry an image clue")
	}

	sess := svc.registry.Get("room")
	if sess == nil {
		t.Fatal("session should be registered")
	}
	song, _, ok := sess.currentRound()
	if !ok {
		t.Fatal("round 1 should be open")
	}

	if won, err := svc.SubmitGuess(ctx, "room", "p1", "wrong answer"); err != nil || won {
		t.Fatalf("wrong guess should not win: won=%v err=%v", won, err)
	}
	won, err := svc.SubmitGuess(ctx, "room", "p1", song.Title)
	if err != nil || !won {
		t.Fatalf("correct guess should win: won=%v err=%v", won, err)
	}
	// The latch is closed: an identical guess straight after loses.
	if won, _ := svc.SubmitGuess(ctx, "room", "p2", song.Title); won {
		t.Fatal("second guess after resolution must not win")
	}
	em.wait(t, "won")

	em.wait(t, "started")
	song2, _, ok := sess.currentRound()
	if !ok {
		t.Fatal("round 2 should be open")
	}
	if won, err := svc.SubmitGuess(ctx, "room", "p2", song2.Title); err != nil || !won {
		t.Fatalf("round 2 guess should win: won=%v err=%v", won, err)
	}
	em.wait(t, "won")

	em.wait(t, "ended")
	ended := em.lastEnded(t)
	if ended.Cancelled || ended.RoundsPlayed != 2 || len(ended.Scores) != 2 {
		t.Fatalf("ended event mismatch: %+v", ended)
	}
	if svc.registry.Get("room") != nil {
		t.Fatal("registry must be empty after the game ends")
	}
}

func TestStartGameConflict(t *testing.T) {
	svc, em := newTestService(t)
	ctx := context.Background()

	if _, err := svc.StartGame(ctx, "room", "host", GameConfig{}); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if _, err := svc.StartGame(ctx, "room", "other", GameConfig{}); !errors.Is(err, ErrGameActive) {
		t.Fatalf("expected ErrGameActive, got %v", err)
	}
	if err := svc.Stop(ctx, "room", "host"); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	em.wait(t, "ended")
}

func TestStartGameValidationReleasesGuard(t *testing.T) {
	svc, em := newTestService(t)
	ctx := context.Background()

	cases := []GameConfig{
		{Rounds: 60},
		{TimeLimitSec: 5},
		{SnippetLengthSec: 60},
		{Mode: "video"},
		{AnswerType: "composer"},
		{ImageDifficulty: "nightmare"},
		{Categories: []string{"nosuchcategory"}},
	}
	for _, cfg := range cases {
		if _, err := svc.StartGame(ctx, "room", "host", cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("config %+v: expected ErrInvalidConfig, got %v", cfg, err)
		}
	}

	// every rejection must have released the creation claim
	if _, err := svc.StartGame(ctx, "room", "host", GameConfig{}); err != nil {
		t.Fatalf("StartGame after rejections: %v", err)
	}
	if err := svc.Stop(ctx, "room", "host"); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	em.wait(t, "ended")
}

func TestStartGameNoSongsAndNoMedia(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.StartGame(ctx, "room", "host", GameConfig{Categories: []string{"ongeki"}}); !errors.Is(err, ErrNoSongsMatched) {
		t.Fatalf("expected ErrNoSongsMatched, got %v", err)
	}
	// no audio assets exist in the fixture
	if _, err := svc.StartGame(ctx, "room", "host", GameConfig{Mode: ModeAudio}); !errors.Is(err, ErrNoMediaAvailable) {
		t.Fatalf("expected ErrNoMediaAvailable, got %v", err)
	}
	// both failures released the claim
	if _, err := svc.StartGame(ctx, "room", "host", GameConfig{}); err != nil {
		t.Fatalf("StartGame after failures: %v", err)
	}
}

func TestRoundClampsToPool(t *testing.T) {
	svc, em := newTestService(t)
	ctx := context.Background()

	sum, err := svc.StartGame(ctx, "room", "host", GameConfig{Rounds: 50})
	if err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if sum.Rounds != 3 {
		t.Fatalf("rounds should clamp to the 3-song pool, got %d", sum.Rounds)
	}
	if err := svc.Stop(ctx, "room", "host"); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	em.wait(t, "ended")
}

func TestTimeoutResolvesOnce(t *testing.T) {
	svc, em := newTestService(t)
	ctx := context.Background()

	if _, err := svc.StartGame(ctx, "room", "host", GameConfig{Rounds: 2}); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	em.wait(t, "started")
	sess := svc.registry.Get("room")

	svc.onTimeout(sess, 1)
	svc.onTimeout(sess, 1) // duplicate fire must be ignored
	em.wait(t, "timeout")

	em.wait(t, "started") // round 2 follows
	em.mu.Lock()
	timeoutCount := len(em.timeouts)
	em.mu.Unlock()
	if timeoutCount != 1 {
		t.Fatalf("expected exactly one timeout event, got %d", timeoutCount)
	}
}

func TestSkipHostOnlyAndOnce(t *testing.T) {
	svc, em := newTestService(t)
	ctx := context.Background()

	if err := svc.Skip(ctx, "room", "host"); !errors.Is(err, ErrNoActiveGame) {
		t.Fatalf("expected ErrNoActiveGame, got %v", err)
	}

	if _, err := svc.StartGame(ctx, "room", "host", GameConfig{Rounds: 2}); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	em.wait(t, "started")

	if err := svc.Skip(ctx, "room", "impostor"); !errors.Is(err, ErrNotHost) {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
	if err := svc.Skip(ctx, "room", "host"); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if err := svc.Skip(ctx, "room", "host"); !errors.Is(err, ErrRoundNotActive) {
		t.Fatalf("second skip in flight: expected ErrRoundNotActive, got %v", err)
	}
	em.wait(t, "skipped")
}

func TestStopCancelsGame(t *testing.T) {
	svc, em := newTestService(t)
	ctx := context.Background()

	if _, err := svc.StartGame(ctx, "room", "host", GameConfig{Rounds: 2}); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	em.wait(t, "started")

	if err := svc.Stop(ctx, "room", "impostor"); !errors.Is(err, ErrNotHost) {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
	if err := svc.Stop(ctx, "room", "host"); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	em.wait(t, "ended")
	if !em.lastEnded(t).Cancelled {
		t.Fatal("stop must end the game as cancelled")
	}
	if _, err := svc.Leaderboard(ctx, "room"); !errors.Is(err, ErrNoActiveGame) {
		t.Fatalf("leaderboard after stop: expected ErrNoActiveGame, got %v", err)
	}
}

func TestLeaderboardLive(t *testing.T) {
	svc, em := newTestService(t)
	ctx := context.Background()

	if _, err := svc.StartGame(ctx, "room", "host", GameConfig{Rounds: 2}); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	em.wait(t, "started")
	sess := svc.registry.Get("room")
	song, _, _ := sess.currentRound()
	if _, err := svc.SubmitGuess(ctx, "room", "p1", song.Title); err != nil {
		t.Fatalf("SubmitGuess: %v", err)
	}
	em.wait(t, "won")

	lb, err := svc.Leaderboard(ctx, "room")
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if lb.Round != 1 || lb.TotalRounds != 2 {
		t.Fatalf("leaderboard progress mismatch: %+v", lb)
	}
	if len(lb.Entries) != 1 || lb.Entries[0].PlayerID != "p1" || lb.Entries[0].Score != 1 {
		t.Fatalf("leaderboard entries mismatch: %+v", lb.Entries)
	}
	_ = svc.Stop(ctx, "room", "host")
}

func TestReplayHostOnlySingleUse(t *testing.T) {
	svc, em := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Replay(ctx, "room", "host"); !errors.Is(err, ErrNoReplayOffer) {
		t.Fatalf("expected ErrNoReplayOffer, got %v", err)
	}

	orig, err := svc.StartGame(ctx, "room", "host", GameConfig{Rounds: 2, AnswerType: AnswerArtist})
	if err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if err := svc.Stop(ctx, "room", "host"); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	em.wait(t, "ended")

	if _, err := svc.Replay(ctx, "room", "impostor"); !errors.Is(err, ErrNotHost) {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
	replayed, err := svc.Replay(ctx, "room", "host")
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if replayed.Mode != orig.Mode || replayed.AnswerType != orig.AnswerType || replayed.Rounds != orig.Rounds {
		t.Fatalf("replay config mismatch: %+v vs %+v", replayed, orig)
	}
	if replayed.SessionUUID == orig.SessionUUID {
		t.Fatal("replay must be a fresh session")
	}
	if _, err := svc.Replay(ctx, "room", "host"); !errors.Is(err, ErrReplayUsed) {
		t.Fatalf("expected ErrReplayUsed, got %v", err)
	}
	_ = svc.Stop(ctx, "room", "host")
}

func TestReplayOfferExpires(t *testing.T) {
	svc, em := newTestService(t)
	ctx := context.Background()

	if _, err := svc.StartGame(ctx, "room", "host", GameConfig{}); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if err := svc.Stop(ctx, "room", "host"); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	em.wait(t, "ended")

	time.Sleep(300 * time.Millisecond) // past the 150ms window
	if _, err := svc.Replay(ctx, "room", "host"); !errors.Is(err, ErrNoReplayOffer) {
		t.Fatalf("expected ErrNoReplayOffer after expiry, got %v", err)
	}
}

func TestArtistRoundHintAndGuess(t *testing.T) {
	svc, em := newTestService(t)
	ctx := context.Background()

	if _, err := svc.StartGame(ctx, "room", "host", GameConfig{Rounds: 1, AnswerType: AnswerArtist}); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	em.wait(t, "started")
	clue := em.lastStarted(t)
	if clue.Clue.TitleHint == "" {
		t.Fatal("artist rounds must hint the title")
	}

	sess := svc.registry.Get("room")
	song, _, _ := sess.currentRound()
	if won, err := svc.SubmitGuess(ctx, "room", "p1", song.Artist); err != nil || !won {
		t.Fatalf("artist guess should win: won=%v err=%v", won, err)
	}
	em.wait(t, "won")
	em.wait(t, "ended")
}

func TestStatsPersistedAfterGame(t *testing.T) {
	svc, em := newTestService(t)
	ctx := context.Background()

	if _, err := svc.StartGame(ctx, "room", "host", GameConfig{Rounds: 1}); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	em.wait(t, "started")
	sess := svc.registry.Get("room")
	song, _, _ := sess.currentRound()
	if _, err := svc.SubmitGuess(ctx, "room", "p1", song.Title); err != nil {
		t.Fatalf("SubmitGuess: %v", err)
	}
	em.wait(t, "ended")

	view, err := svc.PlayerStats(ctx, "room", "p1")
	if err != nil {
		t.Fatalf("PlayerStats: %v", err)
	}
	if view == nil {
		t.Fatal("expected stats for the winner")
	}
	if view.GamesPlayed != 1 || view.RoundsWon != 1 || view.GamesTopped != 1 {
		t.Fatalf("stats mismatch: %+v", view)
	}

	if missing, err := svc.PlayerStats(ctx, "room", "nobody"); err != nil || missing != nil {
		t.Fatalf("expected nil stats for non-player, got %+v err=%v", missing, err)
	}
}
