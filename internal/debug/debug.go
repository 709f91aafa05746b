// Package debug traces protocol traffic when $WAYLAND_DEBUG is set to
// a positive number.
package debug

import (
	"os"
	"strconv"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

var (
	enabled bool
	logger  atomic.Pointer[log.Logger]
)

func init() {
	logger.Store(log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "wayland",
		Level:  log.DebugLevel,
	}))

	debugLevel, err := strconv.ParseInt(os.Getenv("WAYLAND_DEBUG"), 10, 0)
	if err != nil {
		return
	}
	enabled = debugLevel > 0
}

// Enabled reports whether tracing is turned on.
func Enabled() bool {
	return enabled
}

// SetLogger replaces the logger that traces are written to. Traces
// go to a child of l at debug level, so they are written regardless
// of l's own level.
func SetLogger(l *log.Logger) {
	child := l.WithPrefix("wayland")
	child.SetLevel(log.DebugLevel)
	logger.Store(child)
}

func Printf(str string, args ...any) {
	if !enabled {
		return
	}
	logger.Load().Debugf(str, args...)
}
