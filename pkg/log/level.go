package log

import (
	"errors"
)

var (
	// LogLevelMapping is a mapping for LogLevel enum
	LogLevelMapping = map[string]LogLevel{
		ERROR.String():   ERROR,
		WARNING.String(): WARNING,
		INFO.String():    INFO,
		DEBUG.String():   DEBUG,
		SILENT.String():  SILENT,
	}

	errInvalidLevel = errors.New("invalid log level")
)

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
	SILENT
)

type LogLevel int

// ParseLevel resolves a level name such as "debug" or "warning".
func ParseLevel(name string) (LogLevel, error) {
	l, exist := LogLevelMapping[name]
	if !exist {
		return SILENT, errInvalidLevel
	}
	return l, nil
}

// UnmarshalYAML unserialize LogLevel with yaml
func (l *LogLevel) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var tp string
	if err := unmarshal(&tp); err != nil {
		return err
	}
	lvl, err := ParseLevel(tp)
	if err != nil {
		return err
	}
	*l = lvl
	return nil
}

// MarshalYAML serialize LogLevel with yaml
func (l LogLevel) MarshalYAML() (interface{}, error) {
	return l.String(), nil
}

// Set implements flag.Value.
func (l *LogLevel) Set(name string) error {
	lvl, err := ParseLevel(name)
	if err != nil {
		return err
	}
	*l = lvl
	return nil
}

func (l LogLevel) String() string {
	switch l {
	case INFO:
		return "info"
	case WARNING:
		return "warning"
	case ERROR:
		return "error"
	case DEBUG:
		return "debug"
	case SILENT:
		return "silent"
	default:
		return "unknown"
	}
}
