package quizpresenter

import (
	"encoding/base64"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/MaiQuiz-KakaoTalk-bot/pkg/quizdto"
)

// Presenter delivers formatted quiz events to the chat room without
// coupling the engine to the command layer. Emitter calls arrive from
// timer goroutines, so delivery failures are logged rather than returned.
type Presenter struct {
	sendMessage func(room, message string) error
	sendImage   func(room, imageBase64 string) error
	sendAudio   func(room, path string) error
	formatter   *Formatter
	logger      *zap.Logger
}

func NewPresenter(
	sendMessage func(room, message string) error,
	sendImage func(room, imageBase64 string) error,
	sendAudio func(room, path string) error,
	formatter *Formatter,
	logger *zap.Logger,
) *Presenter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Presenter{
		sendMessage: sendMessage,
		sendImage:   sendImage,
		sendAudio:   sendAudio,
		formatter:   formatter,
		logger:      logger,
	}
}

func (p *Presenter) RoundStarted(room string, ev *quizdto.RoundStarted) {
	if p == nil || ev == nil {
		return
	}
	p.text(room, p.formatter.RoundStarted(ev))
	p.media(room, ev.Media)
}

func (p *Presenter) RoundWon(room string, ev *quizdto.RoundWon) {
	if p == nil || ev == nil {
		return
	}
	p.text(room, p.formatter.RoundWon(ev))
	p.cover(room, ev.Reveal.CoverPath)
}

func (p *Presenter) RoundTimeout(room string, ev *quizdto.RoundTimeout) {
	if p == nil || ev == nil {
		return
	}
	p.text(room, p.formatter.RoundTimeout(ev))
	p.cover(room, ev.Reveal.CoverPath)
}

func (p *Presenter) RoundSkipped(room string, ev *quizdto.RoundSkipped) {
	if p == nil || ev == nil {
		return
	}
	p.text(room, p.formatter.RoundSkipped(ev))
	p.cover(room, ev.Reveal.CoverPath)
}

func (p *Presenter) GameEnded(room string, ev *quizdto.GameEnded) {
	if p == nil || ev == nil {
		return
	}
	p.text(room, p.formatter.GameEnded(ev))
}

func (p *Presenter) text(room, message string) {
	if strings.TrimSpace(message) == "" || p.sendMessage == nil {
		return
	}
	if err := p.sendMessage(room, message); err != nil {
		p.logger.Warn("quiz message send failed", zap.Error(err))
	}
}

// media ships the round clue. Snippet files are transient ffmpeg output
// and are removed once handed to the transport.
func (p *Presenter) media(room string, ref *quizdto.MediaRef) {
	if ref == nil {
		return
	}
	switch {
	case len(ref.ImagePNG) > 0 && p.sendImage != nil:
		encoded := base64.StdEncoding.EncodeToString(ref.ImagePNG)
		if err := p.sendImage(room, encoded); err != nil {
			p.logger.Warn("quiz clue image send failed", zap.Error(err))
		}
	case ref.AudioPath != "" && p.sendAudio != nil:
		if err := p.sendAudio(room, ref.AudioPath); err != nil {
			p.logger.Warn("quiz clue audio send failed", zap.Error(err))
		}
		if ref.Temporary {
			if err := os.Remove(ref.AudioPath); err != nil {
				p.logger.Warn("snippet cleanup failed", zap.String("path", ref.AudioPath), zap.Error(err))
			}
		}
	}
}

// cover posts the full jacket after a reveal.
func (p *Presenter) cover(room, path string) {
	if path == "" || p.sendImage == nil {
		return
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		p.logger.Warn("cover read failed", zap.String("path", path), zap.Error(err))
		return
	}
	if err := p.sendImage(room, base64.StdEncoding.EncodeToString(raw)); err != nil {
		p.logger.Warn("cover send failed", zap.Error(err))
	}
}
