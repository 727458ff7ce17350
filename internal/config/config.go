package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	IrisBaseURL string
	IrisWSURL   string

	BotPrefix string

	XUserID    string
	XUserEmail string
	XSessionID string

	RedisURL    string
	DatabaseURL string

	AllowedRooms []string

	// Song catalog and media assets.
	SongDataPath string
	ImageDir     string
	AudioDir     string
	SnippetDir   string
	FfmpegPath   string
	FfprobePath  string

	// Per-game defaults; players can override them per 시작 command.
	QuizDefaultMode       string
	QuizDefaultAnswer     string
	QuizDefaultRounds     int
	QuizDefaultTimeSec    int
	QuizDefaultSnippetSec int
	QuizDefaultDifficulty string
	QuizReplayWindowSec   int
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		SongDataPath:          "data/songs.json",
		ImageDir:              "assets/covers",
		AudioDir:              "assets/audio",
		QuizDefaultMode:       "image",
		QuizDefaultAnswer:     "title",
		QuizDefaultRounds:     5,
		QuizDefaultTimeSec:    30,
		QuizDefaultSnippetSec: 10,
		QuizDefaultDifficulty: "easy",
		QuizReplayWindowSec:   60,
	}

	cfg.IrisBaseURL = strings.TrimSpace(os.Getenv("IRIS_BASE_URL"))
	cfg.IrisWSURL = strings.TrimSpace(os.Getenv("IRIS_WS_URL"))
	cfg.BotPrefix = strings.TrimSpace(os.Getenv("BOT_PREFIX"))

	cfg.XUserID = strings.TrimSpace(os.Getenv("X_USER_ID"))
	cfg.XUserEmail = strings.TrimSpace(os.Getenv("X_USER_EMAIL"))
	cfg.XSessionID = strings.TrimSpace(os.Getenv("X_SESSION_ID"))

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if v := strings.TrimSpace(os.Getenv("ALLOWED_ROOMS")); v != "" {
		parts := strings.Split(v, ",")
		for _, p := range parts {
			s := strings.TrimSpace(p)
			if s != "" {
				cfg.AllowedRooms = append(cfg.AllowedRooms, s)
			}
		}
	}

	if v := strings.TrimSpace(os.Getenv("SONG_DATA_PATH")); v != "" {
		cfg.SongDataPath = v
	}
	if v := strings.TrimSpace(os.Getenv("IMAGE_DIR")); v != "" {
		cfg.ImageDir = v
	}
	if v := strings.TrimSpace(os.Getenv("AUDIO_DIR")); v != "" {
		cfg.AudioDir = v
	}
	cfg.SnippetDir = strings.TrimSpace(os.Getenv("SNIPPET_DIR"))
	cfg.FfmpegPath = strings.TrimSpace(os.Getenv("FFMPEG_PATH"))
	cfg.FfprobePath = strings.TrimSpace(os.Getenv("FFPROBE_PATH"))

	if v := strings.TrimSpace(os.Getenv("QUIZ_DEFAULT_MODE")); v != "" {
		cfg.QuizDefaultMode = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("QUIZ_DEFAULT_ANSWER")); v != "" {
		cfg.QuizDefaultAnswer = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("QUIZ_DEFAULT_ROUNDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.QuizDefaultRounds = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("QUIZ_DEFAULT_TIME_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.QuizDefaultTimeSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("QUIZ_DEFAULT_SNIPPET_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.QuizDefaultSnippetSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("QUIZ_DEFAULT_DIFFICULTY")); v != "" {
		cfg.QuizDefaultDifficulty = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("QUIZ_REPLAY_WINDOW_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.QuizReplayWindowSec = n
		}
	}

	if cfg.IrisBaseURL == "" {
		return nil, errors.New("IRIS_BASE_URL is required")
	}
	if cfg.IrisWSURL == "" {
		return nil, errors.New("IRIS_WS_URL is required")
	}
	if cfg.BotPrefix == "" {
		return nil, errors.New("BOT_PREFIX is required")
	}
	if cfg.SongDataPath == "" {
		return nil, errors.New("SONG_DATA_PATH is required")
	}

	return cfg, nil
}
