// Package golog is a leveled logger that carries key/value context.
package golog

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Level represents a log level (CRIT, ERR, ...)
type Level int32

// Log levels
const (
	CRIT  Level = iota // For panics and protocol violations that need an operator
	ERR                // General errors (e.g. errors from the queue, store, etc)
	WARN               // e.g. a terminal but expected failure
	INFO               // e.g. progress of a job
	DEBUG              // Normally turned off but can help to track down issues
)

var levelNames = map[Level]string{
	CRIT:  "CRIT",
	ERR:   "ERR",
	WARN:  "WARN",
	INFO:  "INFO",
	DEBUG: "DEBUG",
}

func (l Level) String() string {
	if s := levelNames[l]; s != "" {
		return s
	}
	return strconv.Itoa(int(l))
}

// Logger is implemented by the default logger and every context logger derived from it.
type Logger interface {
	// Context returns a logger that adds the key/value pairs to every entry.
	Context(keyvals ...interface{}) Logger

	SetLevel(l Level) Level
	Level() Level
	// L returns true if the current level is greater than or equal to 'l'
	L(l Level) bool

	SetHandler(h Handler)
	Handler() Handler

	Logf(calldepth int, l Level, format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	Criticalf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// Handler receives formatted entries.
type Handler interface {
	Log(e *Entry) error
}

// Entry is a single log line.
type Entry struct {
	Time time.Time
	Lvl  Level
	Msg  string
	Ctx  []interface{}
	Src  string
}

type logger struct {
	mu  sync.Mutex
	ctx []interface{}
	hnd Handler
	lvl *int32
}

var defaultL = &logger{
	hnd: IOHandler(os.Stdout, os.Stderr, LogfmtFormatter()),
	lvl: newLevel(INFO),
}

func newLevel(l Level) *int32 {
	v := int32(l)
	return &v
}

// Default returns the process wide logger.
func Default() Logger {
	return defaultL
}

// Context returns a child of the default logger with the provided key/value pairs.
func Context(keyvals ...interface{}) Logger {
	return defaultL.Context(keyvals...)
}

func (l *logger) SetLevel(lvl Level) Level {
	return Level(atomic.SwapInt32(l.lvl, int32(lvl)))
}

func (l *logger) Level() Level {
	return Level(atomic.LoadInt32(l.lvl))
}

func (l *logger) SetHandler(h Handler) {
	l.mu.Lock()
	l.hnd = h
	l.mu.Unlock()
}

func (l *logger) Handler() Handler {
	l.mu.Lock()
	h := l.hnd
	l.mu.Unlock()
	return h
}

func (l *logger) L(lvl Level) bool {
	return l.Level() >= lvl
}

// Context shares the level with its parent so -debug applies to every derived logger.
func (l *logger) Context(keyvals ...interface{}) Logger {
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "MISSING")
	}
	ctx := make([]interface{}, 0, len(l.ctx)+len(keyvals))
	ctx = append(ctx, l.ctx...)
	ctx = append(ctx, keyvals...)
	return &logger{
		ctx: ctx,
		hnd: l.Handler(),
		lvl: l.lvl,
	}
}

func (l *logger) Logf(calldepth int, lvl Level, format string, args ...interface{}) {
	if !l.L(lvl) {
		return
	}
	entry := &Entry{
		Time: time.Now(),
		Lvl:  lvl,
		Msg:  fmt.Sprintf(format, args...),
		Ctx:  l.ctx,
	}
	if calldepth > 0 {
		if _, file, line, ok := runtime.Caller(calldepth); ok {
			entry.Src = shortFile(file) + ":" + strconv.Itoa(line)
		}
	}
	l.Handler().Log(entry)
}

// shortFile keeps the last directory and the file name.
func shortFile(file string) string {
	depth := 0
	for i := len(file) - 1; i > 0; i-- {
		if file[i] == '/' {
			depth++
			if depth == 2 {
				return file[i+1:]
			}
		}
	}
	return file
}

func (l *logger) Fatalf(format string, args ...interface{}) {
	l.Logf(2, CRIT, format, args...)
	os.Exit(255)
}

func (l *logger) Criticalf(format string, args ...interface{}) {
	l.Logf(2, CRIT, format, args...)
}

func (l *logger) Errorf(format string, args ...interface{}) {
	l.Logf(2, ERR, format, args...)
}

func (l *logger) Warningf(format string, args ...interface{}) {
	l.Logf(2, WARN, format, args...)
}

func (l *logger) Infof(format string, args ...interface{}) {
	l.Logf(-1, INFO, format, args...)
}

func (l *logger) Debugf(format string, args ...interface{}) {
	l.Logf(-1, DEBUG, format, args...)
}

type ctxKey struct{}

// WithLogger returns a context that carries the logger.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger attached to the context or the default logger.
func FromContext(ctx context.Context) Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(Logger); ok {
			return l
		}
	}
	return defaultL
}

// Writer adapts the default logger to an io.Writer at INFO level (e.g. for log.SetOutput).
var Writer io.Writer = writer{}

type writer struct{}

func (writer) Write(b []byte) (int, error) {
	defaultL.Infof("%s", b)
	return len(b), nil
}

func Fatalf(format string, args ...interface{}) {
	defaultL.Logf(2, CRIT, format, args...)
	os.Exit(255)
}

func Criticalf(format string, args ...interface{}) {
	defaultL.Logf(2, CRIT, format, args...)
}

func Errorf(format string, args ...interface{}) {
	defaultL.Logf(2, ERR, format, args...)
}

func Warningf(format string, args ...interface{}) {
	defaultL.Logf(2, WARN, format, args...)
}

func Infof(format string, args ...interface{}) {
	defaultL.Logf(-1, INFO, format, args...)
}

func Debugf(format string, args ...interface{}) {
	defaultL.Logf(-1, DEBUG, format, args...)
}
