package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/adapter/quizpresenter"
	appcfg "github.com/park285/MaiQuiz-KakaoTalk-bot/internal/config"
	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/irisfast"
	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/msgcat"
	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/obslog"
	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/quiz"
	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/quizbuilder"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()

	headers := func() map[string]string {
		h := map[string]string{}
		if cfg.XUserID != "" {
			h["X-User-Id"] = cfg.XUserID
		}
		if cfg.XUserEmail != "" {
			h["X-User-Email"] = cfg.XUserEmail
		}
		if cfg.XSessionID != "" {
			h["X-Session-Id"] = cfg.XSessionID
		}
		return h
	}

	client := irisfast.NewClient(cfg.IrisBaseURL, irisfast.WithHeaderProvider(headers))

	ws := irisfast.NewWebSocket(cfg.IrisWSURL, 5, time.Second)
	ws.SetHeaderProvider(headers)
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		logger.Info("ws state", zap.String("state", state.String()))
	})

	egress := irisfast.NewEgress(os.Getenv("EGRESS_MODE"), false, client, ws, logger)

	messages, err := msgcat.New(os.Getenv("MESSAGE_TEMPLATE_DIR"))
	if err != nil {
		log.Fatalf("message catalog error: %v", err)
	}
	formatter := quizpresenter.NewFormatter(prefixProvider{prefix: cfg.BotPrefix}, messages)

	presenter := quizpresenter.NewPresenter(
		func(room, message string) error { return egress.SendText(context.Background(), room, message) },
		func(room, imageBase64 string) error { return egress.SendImage(context.Background(), room, imageBase64) },
		func(room, path string) error {
			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			return egress.SendAudio(context.Background(), room, base64.StdEncoding.EncodeToString(raw))
		},
		formatter,
		logger,
	)

	deps, err := quizbuilder.New(cfg, presenter, logger)
	if err != nil {
		log.Fatalf("quiz init error: %v", err)
	}

	ws.OnMessage(func(msg *irisfast.Message) {
		if msg == nil || msg.Msg == "" {
			return
		}
		if len(cfg.AllowedRooms) > 0 && !roomAllowed(cfg.AllowedRooms, msg.Room) {
			return
		}
		text := strings.TrimSpace(msg.Msg)
		if strings.HasPrefix(text, cfg.BotPrefix) {
			go handleCommand(egress, cfg, deps.Service, formatter, msg)
			return
		}
		// Everything else is a potential answer for the open round.
		go func() {
			_, _ = deps.Service.SubmitGuess(context.Background(), msg.Room, senderName(msg), text)
		}()
	})

	cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ws.Connect(cctx); err != nil {
		cancel()
		log.Fatalf("ws connect error: %v", err)
	}
	cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	_ = ws.Close(context.Background())
	if deps.Cache != nil {
		_ = deps.Cache.Close()
	}
}

func handleCommand(egress irisfast.Egress, cfg *appcfg.AppConfig, svc *quiz.Service, formatter *quizpresenter.Formatter, msg *irisfast.Message) {
	send := func(text string) {
		if strings.TrimSpace(text) != "" {
			_ = egress.SendText(context.Background(), msg.Room, text)
		}
	}

	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(msg.Msg), cfg.BotPrefix))
	parts := strings.Fields(raw)
	if len(parts) == 0 {
		send(formatter.Help())
		return
	}
	cmd := strings.ToLower(parts[0])
	if cmd != "퀴즈" && cmd != "quiz" {
		return
	}
	args := parts[1:]
	if len(args) == 0 {
		send(formatter.Help())
		return
	}

	ctx := context.Background()
	player := senderName(msg)
	sub := strings.ToLower(strings.TrimSpace(args[0]))

	switch sub {
	case "시작", "start":
		req, err := parseGameOptions(args[1:])
		if err != nil {
			send(formatter.Error(err))
			return
		}
		summary, err := svc.StartGame(ctx, msg.Room, player, req)
		if err != nil {
			send(formatter.Error(err))
			return
		}
		send(formatter.Start(summary))
	case "스킵", "skip":
		if err := svc.Skip(ctx, msg.Room, player); err != nil {
			send(formatter.Error(err))
		}
	case "중지", "stop":
		if err := svc.Stop(ctx, msg.Room, player); err != nil {
			send(formatter.Error(err))
		}
	case "순위", "rank":
		board, err := svc.Leaderboard(ctx, msg.Room)
		if err != nil {
			send(formatter.Error(err))
			return
		}
		send(formatter.Leaderboard(board))
	case "다시", "replay":
		summary, err := svc.Replay(ctx, msg.Room, player)
		if err != nil {
			send(formatter.Error(err))
			return
		}
		send(formatter.Start(summary))
	case "전적", "stats":
		view, err := svc.PlayerStats(ctx, msg.Room, player)
		if err != nil {
			send(formatter.Error(err))
			return
		}
		send(formatter.Stats(view))
	case "필터", "filters":
		send(formatter.Filters())
	default:
		send(formatter.Help())
	}
}

// parseGameOptions turns `라운드=10 모드=노래 …` tokens into a game request.
// Unknown keys are rejected; value validation happens in the engine.
func parseGameOptions(args []string) (quiz.GameConfig, error) {
	var req quiz.GameConfig
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found {
			return req, fmt.Errorf("%w: %s", quiz.ErrInvalidConfig, arg)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		switch key {
		case "라운드", "rounds":
			n, err := strconv.Atoi(value)
			if err != nil {
				return req, quiz.ErrInvalidConfig
			}
			req.Rounds = n
		case "모드", "mode":
			req.Mode = modeValue(value)
		case "정답", "answer":
			req.AnswerType = answerValue(value)
		case "시간", "time":
			n, err := strconv.Atoi(value)
			if err != nil {
				return req, quiz.ErrInvalidConfig
			}
			req.TimeLimitSec = n
		case "길이", "length":
			n, err := strconv.Atoi(value)
			if err != nil {
				return req, quiz.ErrInvalidConfig
			}
			req.SnippetLengthSec = n
		case "자켓", "difficulty":
			req.ImageDifficulty = difficultyValue(value)
		case "카테고리", "categories":
			req.Categories = splitList(value)
		case "버전", "versions":
			req.Versions = splitList(value)
		default:
			return req, quiz.ErrInvalidConfig
		}
	}
	return req, nil
}

func modeValue(v string) string {
	switch strings.ToLower(v) {
	case "자켓", "이미지", "image":
		return quiz.ModeImage
	case "노래", "오디오", "audio":
		return quiz.ModeAudio
	default:
		return v
	}
}

func answerValue(v string) string {
	switch strings.ToLower(v) {
	case "제목", "title":
		return quiz.AnswerTitle
	case "아티스트", "artist":
		return quiz.AnswerArtist
	case "난이도", "difficulty", "level":
		return quiz.AnswerDifficulty
	default:
		return v
	}
}

func difficultyValue(v string) string {
	switch strings.ToLower(v) {
	case "쉬움", "easy":
		return quiz.DifficultyEasy
	case "보통", "medium":
		return quiz.DifficultyMedium
	case "어려움", "hard":
		return quiz.DifficultyHard
	default:
		return v
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func roomAllowed(allowed []string, room string) bool {
	for _, r := range allowed {
		if r == room {
			return true
		}
	}
	return false
}

func senderName(msg *irisfast.Message) string {
	if msg.Sender != nil && strings.TrimSpace(*msg.Sender) != "" {
		return strings.TrimSpace(*msg.Sender)
	}
	if msg.JSON != nil && strings.TrimSpace(msg.JSON.UserID) != "" {
		return strings.TrimSpace(msg.JSON.UserID)
	}
	return "player"
}

type prefixProvider struct{ prefix string }

func (p prefixProvider) Prefix() string { return p.prefix }
