package quiz

import (
	"testing"

	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/domain"
)

func testQueue(n int) []domain.SongRecord {
	songs := make([]domain.SongRecord, n)
	for i := range songs {
		songs[i] = domain.SongRecord{SongID: string(rune('a' + i)), Title: "song"}
	}
	return songs
}

func TestResolveLatchSingleWinner(t *testing.T) {
	sess := newSession("ch", "host", GameConfig{Rounds: 1}, testQueue(1))
	if _, _, ok := sess.beginRound(); !ok {
		t.Fatal("beginRound should open the first round")
	}

	if _, _, _, ok := sess.ResolveWin(1, "p1"); !ok {
		t.Fatal("first resolution should win")
	}
	if _, _, _, ok := sess.ResolveWin(1, "p2"); ok {
		t.Fatal("second winner on same round must lose the race")
	}
	if _, ok := sess.Resolve(1); ok {
		t.Fatal("timeout after win must be a no-op")
	}
	if _, ok := sess.Resolve(-1); ok {
		t.Fatal("skip after win must be a no-op")
	}
}

func TestResolveStaleRound(t *testing.T) {
	sess := newSession("ch", "host", GameConfig{Rounds: 2}, testQueue(2))
	sess.beginRound()
	if _, ok := sess.Resolve(1); !ok {
		t.Fatal("round 1 should resolve")
	}
	sess.beginRound()
	// a timer armed for round 1 firing late must not touch round 2
	if _, ok := sess.Resolve(1); ok {
		t.Fatal("stale round token must not resolve the current round")
	}
	if _, ok := sess.Resolve(2); !ok {
		t.Fatal("round 2 should still resolve normally")
	}
}

func TestBeginRoundExhaustsQueue(t *testing.T) {
	sess := newSession("ch", "host", GameConfig{Rounds: 2}, testQueue(2))
	for i := 1; i <= 2; i++ {
		if _, round, ok := sess.beginRound(); !ok || round != i {
			t.Fatalf("round %d should open, got ok=%v round=%d", i, ok, round)
		}
		sess.Resolve(i)
	}
	if _, _, ok := sess.beginRound(); ok {
		t.Fatal("queue exhausted, beginRound should refuse")
	}
}

func TestLeaderboardOrderingAndTies(t *testing.T) {
	sess := newSession("ch", "host", GameConfig{Rounds: 5}, testQueue(5))

	winners := []string{"p1", "p2", "p2", "p3", "p3"}
	for i, w := range winners {
		sess.beginRound()
		if _, _, _, ok := sess.ResolveWin(i+1, w); !ok {
			t.Fatalf("round %d resolution failed", i+1)
		}
	}

	board := sess.leaderboard()
	if len(board) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(board))
	}
	if board[0].Score != 2 || board[1].Score != 2 || board[2].Score != 1 {
		t.Fatalf("scores not descending: %+v", board)
	}
	// p2 scored before p3, so the tie keeps that order.
	if board[0].PlayerID != "p2" || board[1].PlayerID != "p3" {
		t.Fatalf("tie order not stable: %+v", board)
	}
	for i, e := range board {
		if e.Rank != i+1 {
			t.Fatalf("rank mismatch at %d: %+v", i, e)
		}
	}
}

func TestFinishIdempotent(t *testing.T) {
	sess := newSession("ch", "host", GameConfig{Rounds: 1}, testQueue(1))
	sess.beginRound()
	sess.ResolveWin(1, "p1")

	rounds, played, scores, ok := sess.finish()
	if !ok || rounds != 1 || len(played) != 1 || scores["p1"] != 1 {
		t.Fatalf("finish snapshot mismatch: rounds=%d played=%v scores=%v ok=%v", rounds, played, scores, ok)
	}
	if _, _, _, ok := sess.finish(); ok {
		t.Fatal("second finish must report not-ok")
	}
	if _, _, ok := sess.beginRound(); ok {
		t.Fatal("beginRound after finish must refuse")
	}
}
