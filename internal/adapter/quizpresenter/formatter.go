package quizpresenter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/catalog"
	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/msgcat"
	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/quiz"
	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/util"
	"github.com/park285/MaiQuiz-KakaoTalk-bot/pkg/quizdto"
)

const (
	quizHelpInstruction    = "🎵 노래 퀴즈 명령어 안내"
	quizFilterInstruction  = "🎵 카테고리 / 버전 목록"
	quizRankingInstruction = "📊 중간 순위"

	leaderboardLimit = 10
)

// PrefixProvider exposes the Prefix that Kakao messages should use.
type PrefixProvider interface {
	Prefix() string
}

// Formatter renders quiz DTOs into Kakao-friendly text blocks. Headline
// strings come from the message catalog when one is attached.
type Formatter struct {
	prefixProvider PrefixProvider
	catalog        *msgcat.Catalog
}

func NewFormatter(provider PrefixProvider, messages *msgcat.Catalog) *Formatter {
	return &Formatter{prefixProvider: provider, catalog: messages}
}

func (f *Formatter) Prefix() string {
	if f == nil || f.prefixProvider == nil {
		return ""
	}
	return strings.TrimSpace(f.prefixProvider.Prefix())
}

// render fetches a catalog template, falling back to a literal when the
// catalog is missing or the key cannot be rendered.
func (f *Formatter) render(key string, data map[string]any, fallback string) string {
	if f == nil || f.catalog == nil {
		return fallback
	}
	out, err := f.catalog.Render(key, data)
	if err != nil {
		return fallback
	}
	return out
}

func (f *Formatter) Start(summary *quizdto.GameSummary) string {
	if summary == nil {
		return fmt.Sprintf("퀴즈를 시작할 수 없습니다. `%s퀴즈 시작`을 다시 시도해주세요.", f.Prefix())
	}

	var sb strings.Builder
	sb.WriteString(f.render("quiz.start.header", nil, "🎵 마이마이 노래 퀴즈"))
	sb.WriteString("\n")
	sb.WriteString(f.render("quiz.start.announce", map[string]any{
		"Rounds":      summary.Rounds,
		"ModeLabel":   modeLabel(summary.Mode),
		"AnswerLabel": answerLabel(summary.AnswerType),
	}, fmt.Sprintf("%d라운드 · %s · 정답은 %s!", summary.Rounds, modeLabel(summary.Mode), answerLabel(summary.AnswerType))))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("• 라운드당 %d초\n", summary.TimeLimitSec))
	if summary.Mode == quiz.ModeAudio {
		sb.WriteString(fmt.Sprintf("• 재생 길이 %d초\n", summary.SnippetLengthSec))
	} else {
		sb.WriteString(fmt.Sprintf("• 자켓 난이도: %s\n", difficultyLabel(summary.ImageDifficulty)))
	}
	if len(summary.Categories) > 0 {
		sb.WriteString(fmt.Sprintf("• 카테고리: %s\n", strings.Join(summary.Categories, ", ")))
	}
	if len(summary.Versions) > 0 {
		sb.WriteString(fmt.Sprintf("• 버전: %s\n", strings.Join(summary.Versions, ", ")))
	}
	sb.WriteString(fmt.Sprintf("• 출제 풀: %d곡\n", summary.PoolSize))
	sb.WriteString("\n정답은 채팅으로 바로 입력하세요. 잠시 후 첫 라운드가 시작됩니다!")
	return sb.String()
}

func (f *Formatter) RoundStarted(ev *quizdto.RoundStarted) string {
	if ev == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(f.render("quiz.round.header", map[string]any{
		"Round": ev.Clue.Round,
		"Total": ev.Clue.TotalRounds,
	}, fmt.Sprintf("🎵 라운드 %d/%d", ev.Clue.Round, ev.Clue.TotalRounds)))
	sb.WriteString("\n")
	if ev.Clue.TitleHint != "" {
		sb.WriteString(fmt.Sprintf("곡명: %s\n", ev.Clue.TitleHint))
	}
	sb.WriteString(fmt.Sprintf("%s 맞히기 · 제한 %d초", answerLabel(ev.Clue.AnswerType), ev.Clue.TimeLimitSec))
	return sb.String()
}

func (f *Formatter) RoundWon(ev *quizdto.RoundWon) string {
	if ev == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(f.render("quiz.round.won", map[string]any{
		"Player":  ev.PlayerID,
		"Elapsed": fmt.Sprintf("%.1f", ev.ElapsedSec),
		"Score":   ev.Score,
	}, fmt.Sprintf("🏆 %s님 정답! (%.1f초, 누적 %d점)", ev.PlayerID, ev.ElapsedSec, ev.Score)))
	sb.WriteString("\n\n")
	writeReveal(&sb, ev.Reveal)
	return sb.String()
}

func (f *Formatter) RoundTimeout(ev *quizdto.RoundTimeout) string {
	if ev == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(f.render("quiz.round.timeout", nil, "⏰ 시간 초과! 아무도 맞히지 못했어요."))
	sb.WriteString("\n\n")
	writeReveal(&sb, ev.Reveal)
	return sb.String()
}

func (f *Formatter) RoundSkipped(ev *quizdto.RoundSkipped) string {
	if ev == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(f.render("quiz.round.skipped", nil, "⏭ 라운드를 건너뛰었습니다."))
	sb.WriteString("\n\n")
	writeReveal(&sb, ev.Reveal)
	return sb.String()
}

func (f *Formatter) GameEnded(ev *quizdto.GameEnded) string {
	if ev == nil {
		return ""
	}
	header := f.render("quiz.game.end_header", nil, "🎮 퀴즈 종료")
	if ev.Cancelled {
		header = f.render("quiz.game.cancelled_header", nil, "🛑 퀴즈가 중단되었습니다")
	}

	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("• 진행 라운드: %d/%d\n", ev.RoundsPlayed, ev.TotalRounds))
	if len(ev.Scores) == 0 {
		sb.WriteString("• 정답자가 없었어요.\n")
	} else {
		sb.WriteString("\n")
		writeRanking(&sb, ev.Scores, leaderboardLimit)
	}
	if !ev.Cancelled && ev.ReplayWindowSec > 0 {
		sb.WriteString("\n")
		sb.WriteString(f.render("quiz.game.replay_hint", map[string]any{
			"Window": ev.ReplayWindowSec,
		}, fmt.Sprintf("%d초 안에 '다시'를 입력하면 같은 설정으로 한 판 더!", ev.ReplayWindowSec)))
		sb.WriteString(fmt.Sprintf("\n명령: `%s퀴즈 다시`", f.Prefix()))
	}
	content := sb.String()
	if len(ev.Scores) > 3 {
		return util.ApplyKakaoSeeMorePadding(util.StripLeadingHeader(content, header), header)
	}
	return content
}

func (f *Formatter) Leaderboard(board *quizdto.Leaderboard) string {
	if board == nil {
		return "진행 중인 퀴즈가 없어요."
	}
	var sb strings.Builder
	sb.WriteString(quizRankingInstruction)
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("• 라운드 %d/%d\n", board.Round, board.TotalRounds))
	if len(board.Entries) == 0 {
		sb.WriteString("• 아직 정답자가 없어요.")
		return sb.String()
	}
	sb.WriteString("\n")
	writeRanking(&sb, board.Entries, leaderboardLimit)
	return strings.TrimRight(sb.String(), "\n")
}

func (f *Formatter) Stats(view *quizdto.PlayerStatsView) string {
	if view == nil {
		return "아직 퀴즈 기록이 없어요. 한 판 하고 오세요!"
	}
	var sb strings.Builder
	sb.WriteString("📊 노래 퀴즈 전적\n")
	sb.WriteString(fmt.Sprintf("• %s\n", view.PlayerID))
	sb.WriteString(fmt.Sprintf("• 참여: %d판\n", view.GamesPlayed))
	sb.WriteString(fmt.Sprintf("• 정답: %d라운드\n", view.RoundsWon))
	sb.WriteString(fmt.Sprintf("• 1위: %d회", view.GamesTopped))
	return sb.String()
}

// Filters lists every category and version players can pass to 시작.
func (f *Formatter) Filters() string {
	var sb strings.Builder
	sb.WriteString(quizFilterInstruction)
	sb.WriteString("\n\n[카테고리]\n")
	for _, c := range catalog.Categories() {
		sb.WriteString(fmt.Sprintf("• %s (%s)\n", c.Native, c.English))
	}
	sb.WriteString("\n[버전]\n")
	for _, v := range catalog.Versions() {
		sb.WriteString(fmt.Sprintf("• %s (%s)\n", v.Native, v.English))
	}
	content := strings.TrimRight(sb.String(), "\n")
	return util.ApplyKakaoSeeMorePadding(util.StripLeadingHeader(content, quizFilterInstruction), quizFilterInstruction)
}

func (f *Formatter) Help() string {
	prefix := f.Prefix()
	var sb strings.Builder
	sb.WriteString(quizHelpInstruction)
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("`%s퀴즈 시작` 기본 설정으로 시작\n", prefix))
	sb.WriteString(fmt.Sprintf("`%s퀴즈 시작 라운드=10 모드=노래 시간=20` 옵션 지정\n", prefix))
	sb.WriteString("\n[옵션]\n")
	sb.WriteString("• 라운드=1~50\n")
	sb.WriteString("• 모드=자켓/노래\n")
	sb.WriteString("• 정답=제목/아티스트/난이도\n")
	sb.WriteString("• 시간=10~300 (초)\n")
	sb.WriteString("• 길이=5~30 (노래 모드 재생 초)\n")
	sb.WriteString("• 자켓=쉬움/보통/어려움\n")
	sb.WriteString("• 카테고리=pops,touhou · 버전=buddies\n")
	sb.WriteString("\n[진행 명령]\n")
	sb.WriteString(fmt.Sprintf("`%s퀴즈 스킵` 현재 라운드 건너뛰기 (방장)\n", prefix))
	sb.WriteString(fmt.Sprintf("`%s퀴즈 중지` 게임 종료 (방장)\n", prefix))
	sb.WriteString(fmt.Sprintf("`%s퀴즈 순위` 중간 순위\n", prefix))
	sb.WriteString(fmt.Sprintf("`%s퀴즈 다시` 직전 설정으로 재시작 (방장)\n", prefix))
	sb.WriteString(fmt.Sprintf("`%s퀴즈 전적` 내 기록\n", prefix))
	sb.WriteString(fmt.Sprintf("`%s퀴즈 필터` 카테고리/버전 목록", prefix))
	content := sb.String()
	return util.ApplyKakaoSeeMorePadding(util.StripLeadingHeader(content, quizHelpInstruction), quizHelpInstruction)
}

// Error maps engine sentinels onto player-facing Korean lines.
func (f *Formatter) Error(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, quiz.ErrGameActive):
		return f.render("quiz.error.game_active", nil, "이미 진행 중인 퀴즈가 있어요.")
	case errors.Is(err, quiz.ErrNoActiveGame):
		return f.render("quiz.error.no_game", nil, "진행 중인 퀴즈가 없어요.")
	case errors.Is(err, quiz.ErrNotHost):
		return f.render("quiz.error.not_host", nil, "퀴즈를 시작한 사람만 쓸 수 있는 명령이에요.")
	case errors.Is(err, quiz.ErrNoSongsMatched):
		return f.render("quiz.error.no_songs", nil, "조건에 맞는 노래가 없어요. 필터를 확인해 주세요.")
	case errors.Is(err, quiz.ErrNoMediaAvailable):
		return f.render("quiz.error.no_media", nil, "해당 모드로 낼 수 있는 노래가 없어요.")
	case errors.Is(err, quiz.ErrRoundNotActive):
		return f.render("quiz.error.round_idle", nil, "지금은 진행 중인 라운드가 없어요.")
	case errors.Is(err, quiz.ErrNoReplayOffer):
		return f.render("quiz.error.no_replay", nil, "다시 할 수 있는 퀴즈가 없어요.")
	case errors.Is(err, quiz.ErrReplayUsed):
		return f.render("quiz.error.replay_used", nil, "이미 다시하기를 사용했어요.")
	case errors.Is(err, quiz.ErrInvalidConfig):
		msg := strings.TrimSpace(strings.TrimPrefix(err.Error(), quiz.ErrInvalidConfig.Error()+":"))
		return fmt.Sprintf("옵션이 잘못되었어요: %s\n`%s퀴즈 도움`으로 사용법을 확인하세요.", msg, f.Prefix())
	default:
		return "퀴즈 처리 중 문제가 발생했어요. 잠시 후 다시 시도해주세요."
	}
}

func writeReveal(sb *strings.Builder, r quizdto.SongReveal) {
	sb.WriteString(fmt.Sprintf("정답: %s\n", r.Answer))
	sb.WriteString(fmt.Sprintf("• 아티스트: %s\n", r.Artist))
	if r.Version != "" {
		sb.WriteString(fmt.Sprintf("• 수록: %s\n", r.Version))
	}
	sb.WriteString(fmt.Sprintf("• 난이도: %.1f (%s)", r.Level, strings.ToUpper(r.Tier)))
}

func writeRanking(sb *strings.Builder, entries []quizdto.RankedEntry, limit int) {
	for i, e := range entries {
		if i >= limit {
			sb.WriteString(fmt.Sprintf("…외 %d명\n", len(entries)-limit))
			break
		}
		sb.WriteString(fmt.Sprintf("%s %s · %d점\n", rankBadge(e.Rank), e.PlayerID, e.Score))
	}
}

func rankBadge(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return fmt.Sprintf("%d.", rank)
	}
}

func modeLabel(mode string) string {
	if mode == quiz.ModeAudio {
		return "노래 듣기"
	}
	return "자켓 보기"
}

func answerLabel(answerType string) string {
	switch answerType {
	case quiz.AnswerArtist:
		return "아티스트"
	case quiz.AnswerDifficulty:
		return "난이도"
	default:
		return "제목"
	}
}

func difficultyLabel(difficulty string) string {
	switch difficulty {
	case quiz.DifficultyHard:
		return "어려움"
	case quiz.DifficultyMedium:
		return "보통"
	default:
		return "쉬움"
	}
}
