package quizpresenter

import (
	"strings"
	"testing"

	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/msgcat"
	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/quiz"
	"github.com/park285/MaiQuiz-KakaoTalk-bot/pkg/quizdto"
)

type staticPrefix string

func (s staticPrefix) Prefix() string { return string(s) }

func newTestFormatter(t *testing.T) *Formatter {
	t.Helper()
	messages, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat: %v", err)
	}
	return NewFormatter(staticPrefix("!"), messages)
}

func TestStartAnnouncement(t *testing.T) {
	f := newTestFormatter(t)
	out := f.Start(&quizdto.GameSummary{
		Mode:         quiz.ModeImage,
		AnswerType:   quiz.AnswerTitle,
		Rounds:       5,
		TimeLimitSec: 30,
		Categories:   []string{"東方Project"},
		PoolSize:     120,
	})
	for _, want := range []string{"5라운드", "30초", "東方Project", "120곡"} {
		if !strings.Contains(out, want) {
			t.Errorf("start announcement missing %q:\n%s", want, out)
		}
	}
}

func TestRoundWonUsesCatalogTemplate(t *testing.T) {
	f := newTestFormatter(t)
	out := f.RoundWon(&quizdto.RoundWon{
		Round:      2,
		PlayerID:   "철수",
		Score:      3,
		ElapsedSec: 4.26,
		Reveal:     quizdto.SongReveal{Answer: "Brain Power", Artist: "NOMA", Level: 13.7, Tier: "master"},
	})
	for _, want := range []string{"철수", "4.3초", "누적 3점", "Brain Power", "13.7 (MASTER)"} {
		if !strings.Contains(out, want) {
			t.Errorf("round won missing %q:\n%s", want, out)
		}
	}
}

func TestGameEndedRanking(t *testing.T) {
	f := newTestFormatter(t)
	out := f.GameEnded(&quizdto.GameEnded{
		RoundsPlayed: 3,
		TotalRounds:  3,
		Scores: []quizdto.RankedEntry{
			{Rank: 1, PlayerID: "p1", Score: 2},
			{Rank: 2, PlayerID: "p2", Score: 1},
		},
		ReplayWindowSec: 60,
	})
	for _, want := range []string{"🥇 p1", "🥈 p2", "60초", "!퀴즈 다시"} {
		if !strings.Contains(out, want) {
			t.Errorf("game end missing %q:\n%s", want, out)
		}
	}

	cancelled := f.GameEnded(&quizdto.GameEnded{Cancelled: true, RoundsPlayed: 1, TotalRounds: 3})
	if !strings.Contains(cancelled, "중단") {
		t.Errorf("cancelled game should say so:\n%s", cancelled)
	}
	if strings.Contains(cancelled, "다시") {
		t.Errorf("cancelled game must not offer a replay:\n%s", cancelled)
	}
}

func TestErrorMapping(t *testing.T) {
	f := newTestFormatter(t)
	cases := []struct {
		err  error
		want string
	}{
		{quiz.ErrGameActive, "이미 진행 중"},
		{quiz.ErrNoActiveGame, "진행 중인 퀴즈가 없"},
		{quiz.ErrNotHost, "시작한 사람만"},
		{quiz.ErrNoSongsMatched, "조건에 맞는"},
		{quiz.ErrReplayUsed, "이미 다시하기"},
	}
	for _, tc := range cases {
		if got := f.Error(tc.err); !strings.Contains(got, tc.want) {
			t.Errorf("Error(%v) = %q, want substring %q", tc.err, got, tc.want)
		}
	}
}

func TestHelpAndFiltersPadded(t *testing.T) {
	f := newTestFormatter(t)
	for name, out := range map[string]string{"help": f.Help(), "filters": f.Filters()} {
		if !strings.Contains(out, "\u200b") {
			t.Errorf("%s should carry see-more padding", name)
		}
	}
	if !strings.Contains(f.Help(), "!퀴즈 시작") {
		t.Error("help should show the prefixed start command")
	}
}
