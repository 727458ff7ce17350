package quizbuilder

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/catalog"
	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/config"
	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/media"
	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/quiz"
	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/service/cache"
	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/stats"
)

type Deps struct {
	Service *quiz.Service
	Catalog *catalog.Store
	Cache   *cache.CacheService
	Repo    stats.Repository
	Recent  *quiz.RecentStore
}

// New wires the quiz engine from app config. Redis and Postgres are both
// optional: without Redis the recent-song avoidance and stats cache are
// skipped, without Postgres results stay in process memory.
func New(cfg *config.AppConfig, emitter quiz.Emitter, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	store := catalog.NewStore(cfg.SongDataPath, cfg.ImageDir, cfg.AudioDir, logger)
	if _, err := store.Load(catalog.Filter{}); err != nil {
		return nil, fmt.Errorf("load song catalog: %w", err)
	}

	var cacheSvc *cache.CacheService
	var recent *quiz.RecentStore
	if strings.TrimSpace(cfg.RedisURL) != "" {
		cconf, perr := parseRedisURL(cfg.RedisURL)
		if perr != nil {
			return nil, fmt.Errorf("parse redis url: %w", perr)
		}
		svc, err := cache.NewCacheService(*cconf, logger)
		if err != nil {
			return nil, fmt.Errorf("init cache: %w", err)
		}
		cacheSvc = svc
		recent = quiz.NewRecentStore(svc.Client(), logger)
	} else {
		logger.Warn("REDIS_URL not set, recent-song avoidance and stats cache disabled")
	}

	var repo stats.Repository
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(16)
		db.SetMaxIdleConns(8)
		db.SetConnMaxLifetime(30 * time.Minute)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		repo = stats.NewRepository(db)
	} else {
		logger.Warn("DATABASE_URL not set, quiz results kept in memory")
		repo = stats.NewMemoryRepository()
	}

	cropper := media.NewCropper(logger)
	clipper := media.NewClipper(cfg.FfmpegPath, cfg.FfprobePath, cfg.SnippetDir, logger)

	svcCfg := quiz.Config{
		Defaults: quiz.GameDefaults{
			Mode:             cfg.QuizDefaultMode,
			AnswerType:       cfg.QuizDefaultAnswer,
			Rounds:           cfg.QuizDefaultRounds,
			TimeLimitSec:     cfg.QuizDefaultTimeSec,
			SnippetLengthSec: cfg.QuizDefaultSnippetSec,
			ImageDifficulty:  cfg.QuizDefaultDifficulty,
		},
		ReplayWindow: time.Duration(cfg.QuizReplayWindowSec) * time.Second,
	}

	service, err := quiz.NewService(store, cropper, clipper, cacheSvc, repo, recent, emitter, svcCfg, logger)
	if err != nil {
		return nil, err
	}

	return &Deps{Service: service, Catalog: store, Cache: cacheSvc, Repo: repo, Recent: recent}, nil
}

func parseRedisURL(raw string) (*cache.CacheConfig, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	host := u.Hostname()
	portStr := u.Port()
	if portStr == "" {
		portStr = "6379"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}
	db := 0
	if u.Path != "" {
		p := strings.TrimPrefix(u.Path, "/")
		if p != "" {
			if n, err := strconv.Atoi(p); err == nil {
				db = n
			}
		}
	}
	pass, _ := u.User.Password()
	return &cache.CacheConfig{Host: host, Port: port, Password: pass, DB: db}, nil
}
