package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	blue   = "\x1b[34m"
	yellow = "\x1b[33m"
	red    = "\x1b[31m"
	green  = "\x1b[32m"
	reset  = "\x1b[0m"
)

const (
	LevelDebug = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu     sync.Mutex
	out    io.Writer = os.Stdout
	minLvl           = LevelInfo
)

// SetOutput redirects log lines, mostly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// SetLevel sets the minimum level from a name like "debug" or "warn".
// Unknown names fall back to info.
func SetLevel(name string) {
	mu.Lock()
	defer mu.Unlock()
	minLvl = ParseLevel(name)
}

func ParseLevel(name string) int {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return LevelDebug
	case "WARNING", "WARN":
		return LevelWarn
	case "ERROR", "ERR":
		return LevelError
	default:
		return LevelInfo
	}
}

func prefix(level string) string {
	var color string
	switch strings.ToUpper(level) {
	case "DEBUG":
		color = blue
	case "INFO":
		color = green
	case "WARNING", "WARN":
		color = yellow
	case "ERROR", "ERR":
		color = red
	default:
		color = reset
	}
	return fmt.Sprintf("[%s%s%s] - %s - ", color, strings.ToUpper(level), reset, time.Now().Format("2006-01-02T15:04:05"))
}

func write(level string, format string, a ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if ParseLevel(level) < minLvl {
		return
	}
	fmt.Fprintf(out, "%s%s\n", prefix(level), fmt.Sprintf(format, a...))
}

func Debugf(format string, a ...interface{}) {
	write("DEBUG", format, a...)
}

func Infof(format string, a ...interface{}) {
	write("INFO", format, a...)
}

func Warnf(format string, a ...interface{}) {
	write("WARNING", format, a...)
}

func Errorf(format string, a ...interface{}) {
	write("ERROR", format, a...)
}

func Fatalf(format string, a ...interface{}) {
	Errorf(format, a...)
	os.Exit(1)
}
