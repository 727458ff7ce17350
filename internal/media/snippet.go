package media

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Clip is a playable audio reference. Temporary clips are transcode
// products and must be deleted after delivery; non-temporary clips point
// at the original catalog file.
type Clip struct {
	Path      string
	StartSec  float64
	LengthSec float64
	Temporary bool
}

// SelectWindow picks a uniform random snippet window inside the track.
// Tracks shorter than the requested length play whole from the start.
func SelectWindow(durationSec, snippetSec float64) (startSec, lengthSec float64) {
	if durationSec <= snippetSec {
		return 0, durationSec
	}
	return rand.Float64() * (durationSec - snippetSec), snippetSec
}

// Clipper cuts loudness-normalized opus snippets with external ffmpeg.
// Every failure degrades to the untrimmed source file instead of erroring,
// so a broken ffmpeg install never blocks a round.
type Clipper struct {
	ffmpegPath  string
	ffprobePath string
	workDir     string
	logger      *zap.Logger
}

func NewClipper(ffmpegPath, ffprobePath, workDir string, logger *zap.Logger) *Clipper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Clipper{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		workDir:     workDir,
		logger:      logger,
	}
}

// Snippet produces a clip of roughly lengthSec seconds from a random
// position in src.
func (c *Clipper) Snippet(ctx context.Context, src string, lengthSec int) (Clip, error) {
	duration, err := c.probeDuration(ctx, src)
	if err != nil {
		c.logger.Warn("ffprobe failed, sending untrimmed audio", zap.String("src", src), zap.Error(err))
		return Clip{Path: src}, nil
	}

	start, length := SelectWindow(duration, float64(lengthSec))
	if length >= duration {
		return Clip{Path: src, LengthSec: duration}, nil
	}

	if err := os.MkdirAll(c.workDir, 0o755); err != nil {
		c.logger.Warn("snippet dir unavailable, sending untrimmed audio", zap.Error(err))
		return Clip{Path: src, LengthSec: duration}, nil
	}
	out := filepath.Join(c.workDir, fmt.Sprintf("snippet_%d.ogg", time.Now().UnixNano()))

	args := []string{
		"-ss", formatSeconds(start),
		"-i", src,
		"-t", formatSeconds(length),
		"-af", "loudnorm=I=-16:TP=-1.5:LRA=11",
		"-c:a", "libopus",
		"-b:a", "64k",
		"-vbr", "on",
		"-y", out,
	}
	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		c.logger.Warn("ffmpeg transcode failed, sending untrimmed audio",
			zap.String("src", src),
			zap.String("stderr", truncateTail(stderr.String(), 512)),
			zap.Error(err),
		)
		_ = os.Remove(out)
		return Clip{Path: src, LengthSec: duration}, nil
	}
	if fi, err := os.Stat(out); err != nil || fi.Size() == 0 {
		_ = os.Remove(out)
		return Clip{Path: src, LengthSec: duration}, nil
	}

	return Clip{Path: out, StartSec: start, LengthSec: length, Temporary: true}, nil
}

func (c *Clipper) probeDuration(ctx context.Context, src string) (float64, error) {
	cmd := exec.CommandContext(ctx, c.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		src,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", src, err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(string(out)), err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("non-positive duration %v", duration)
	}
	return duration, nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func truncateTail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
