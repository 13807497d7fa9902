package badger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// logger bridges badger's printf-style logging onto slog
type logger struct {
	l *slog.Logger
}

func newLogger(l *slog.Logger) *logger {
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &logger{
		l: l.With("component", "badger"),
	}
}

func (b *logger) Errorf(format string, args ...any) {
	b.l.Error(render(format, args...))
}

func (b *logger) Warningf(format string, args ...any) {
	b.l.Warn(render(format, args...))
}

func (b *logger) Infof(format string, args ...any) {
	b.l.Info(render(format, args...))
}

func (b *logger) Debugf(format string, args ...any) {
	b.l.Debug(render(format, args...))
}

// render formats the message, dropping badger's trailing newline
func render(format string, args ...any) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
