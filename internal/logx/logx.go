// Package logx is the control-path logging facade used throughout this
// module, in place of the teacher's text_color_set/dw_printf pair
// (src/textcolor.go, src/log.go). It wraps charmbracelet/log, a real
// dependency of the teacher repo.
//
// Nothing on the per-period RT path (process callback trampolines, the
// normal run of drivers/*'s worker loops) calls into this package:
// logging allocates and can block, both forbidden on the RT thread
// (spec §5, "RT discipline"). The one exception is a fatal readi/writei
// failure in drivers/alsa's and drivers/umc202hd's worker loops, which
// logs a single error as the loop stops.
package logx

import (
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	once sync.Once
	base *log.Logger
)

func root() *log.Logger {
	once.Do(func() {
		base = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.000",
		})
	})
	return base
}

// Logger is a component-scoped logger, e.g. logx.For("alsa").
type Logger struct{ l *log.Logger }

// For returns a logger tagged with the given component name, the
// equivalent of the teacher's DW_COLOR_* channel tags but structured.
func For(component string) *Logger {
	return &Logger{l: root().With("component", component)}
}

func (l *Logger) Debug(msg string, kv ...any) { l.l.Debug(msg, kv...) }
func (l *Logger) Info(msg string, kv ...any)  { l.l.Info(msg, kv...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.l.Warn(msg, kv...) }
func (l *Logger) Error(msg string, kv ...any) { l.l.Error(msg, kv...) }
