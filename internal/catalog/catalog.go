// Package catalog is a read-only view over the song data produced by the
// chart scraper (output.json plus the images/ and audio/ asset trees).
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/park285/MaiQuiz-KakaoTalk-bot/internal/domain"
	"go.uber.org/zap"
)

var ErrCatalogUnavailable = errors.New("song catalog unavailable")

// Filter narrows a Load to canonical category/version names. Empty slices
// mean no filtering on that axis.
type Filter struct {
	Categories []string
	Versions   []string
}

type Store struct {
	dataPath string
	imageDir string
	audioDir string
	logger   *zap.Logger
}

func NewStore(dataPath, imageDir, audioDir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		dataPath: dataPath,
		imageDir: imageDir,
		audioDir: audioDir,
		logger:   logger,
	}
}

// Load reads the catalog and returns master/remaster charts matching the
// filter, deduplicated by song id. When a song carries both a master and a
// remaster chart the higher level wins. The result preserves file order.
func (s *Store) Load(filter Filter) ([]domain.SongRecord, error) {
	raw, err := os.ReadFile(s.dataPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrCatalogUnavailable, s.dataPath, err)
	}
	var all []domain.SongRecord
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrCatalogUnavailable, s.dataPath, err)
	}

	seen := make(map[string]int)
	out := make([]domain.SongRecord, 0, len(all))
	for _, song := range all {
		tier := strings.ToLower(strings.TrimSpace(song.Tier))
		if tier != "master" && tier != "remaster" {
			continue
		}
		if len(filter.Categories) > 0 && !containsString(filter.Categories, song.Category) {
			continue
		}
		if len(filter.Versions) > 0 && !containsString(filter.Versions, song.Version) {
			continue
		}
		if idx, ok := seen[song.SongID]; ok {
			if song.Level > out[idx].Level {
				out[idx] = song
			}
			continue
		}
		seen[song.SongID] = len(out)
		out = append(out, song)
	}

	s.logger.Debug("catalog loaded",
		zap.Int("total", len(all)),
		zap.Int("matched", len(out)),
		zap.Strings("categories", filter.Categories),
		zap.Strings("versions", filter.Versions),
	)
	return out, nil
}

// ImagePath resolves the cover image on disk. Missing assets are normal;
// callers fall back or skip the song.
func (s *Store) ImagePath(song domain.SongRecord) (string, bool) {
	name := strings.TrimSpace(song.Image)
	if name == "" {
		return "", false
	}
	path := filepath.Join(s.imageDir, name)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// AudioPath resolves the song's audio file. Audio assets share the cover
// image's base name with an .mp3 extension.
func (s *Store) AudioPath(song domain.SongRecord) (string, bool) {
	name := strings.TrimSpace(song.Image)
	if name == "" {
		return "", false
	}
	name = strings.TrimSuffix(name, filepath.Ext(name)) + ".mp3"
	path := filepath.Join(s.audioDir, name)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// HasMedia reports whether the song can actually be played in the given
// mode ("image" or "audio").
func (s *Store) HasMedia(song domain.SongRecord, mode string) bool {
	switch mode {
	case "audio":
		_, ok := s.AudioPath(song)
		return ok
	default:
		_, ok := s.ImagePath(song)
		return ok
	}
}

// FilterPlayable keeps only songs whose asset for the mode exists on disk.
func (s *Store) FilterPlayable(songs []domain.SongRecord, mode string) []domain.SongRecord {
	out := make([]domain.SongRecord, 0, len(songs))
	for _, song := range songs {
		if s.HasMedia(song, mode) {
			out = append(out, song)
		}
	}
	return out
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
