package logger

import (
	"github.com/pkg/errors"
	"strings"
)

type Level int

const (
	LevelOff Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

var levelNames = map[Level]string{
	LevelOff:   "OFF",
	LevelError: "ERROR",
	LevelWarn:  "WARN",
	LevelInfo:  "INFO",
	LevelDebug: "DEBUG",
	LevelTrace: "TRACE",
}

func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return "UNKNOWN"
}

func ParseLevel(s string) (Level, error) {
	for l, name := range levelNames {
		if name == strings.ToUpper(s) {
			return l, nil
		}
	}
	return -1, errors.Errorf("invalid level: %s", s)
}
