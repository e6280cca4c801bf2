package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/op/go-logging"
)

type Level uint8

// The levels that can be passed to the SetLevel function.
const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
)

var levelMap = map[Level]logging.Level{
	Debug:   logging.DEBUG,
	Info:    logging.INFO,
	Notice:  logging.NOTICE,
	Warning: logging.WARNING,
	Error:   logging.ERROR,
}

func (l Level) String() string {
	if mapped, ok := levelMap[l]; ok {
		return strings.ToLower(mapped.String())
	}
	return fmt.Sprintf("level(%d)", uint8(l))
}

// The logger format
var format = logging.MustStringFormatter(
	`%{color}[%{time:15:04:05.000}] [%{module}] [%{level}]%{color:reset} %{message}`,
)

// The internal leveled logger backend
var leveledBackend logging.LeveledBackend

// The active level; re-applied whenever the sink changes.
var activeLevel = Notice

// The logger interface
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	Notice(v ...interface{})
	Noticef(format string, v ...interface{})

	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Warning(v ...interface{})
	Warningf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

// Create a new named logger.
func New(name string) Logger {
	return logging.MustGetLogger(name)
}

// Override the backend output sink. The current verbosity is preserved.
func SetSink(sink io.Writer) {
	backend := logging.NewLogBackend(sink, "", 0)
	backendWithFormatter := logging.NewBackendFormatter(backend, format)
	leveledBackend = logging.AddModuleLevel(backendWithFormatter)
	leveledBackend.SetLevel(levelMap[activeLevel], "")
	logging.SetBackend(leveledBackend)
}

// Set logger verbosity.
func SetLevel(level Level) {
	mapped, ok := levelMap[level]
	if !ok {
		return
	}

	activeLevel = level
	leveledBackend.SetLevel(mapped, "")
}

// Get the current logger verbosity.
func GetLevel() Level {
	return activeLevel
}

// Parse a level name such as "debug" or "WARNING".
func ParseLevel(name string) (Level, error) {
	parsed, err := logging.LogLevel(strings.ToUpper(strings.TrimSpace(name)))
	if err != nil {
		return Notice, fmt.Errorf("log: unknown level %q", name)
	}

	for level, mapped := range levelMap {
		if mapped == parsed {
			return level, nil
		}
	}

	// CRITICAL has no counterpart; treat it as the most severe level we expose.
	return Error, nil
}

func init() {
	SetSink(os.Stdout)
	SetLevel(Notice)
}
