package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	old := Level()
	defer SetLevel(old)

	SetLevel(WARNING)
	Debugln("hidden %d", 1)
	Warnln("shown %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "|warn| shown 2")
}

func TestLevelYAML(t *testing.T) {
	var cfg struct {
		Level LogLevel `yaml:"level"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("level: debug\n"), &cfg))
	assert.Equal(t, DEBUG, cfg.Level)

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Equal(t, "level: debug\n", string(out))

	assert.Error(t, yaml.Unmarshal([]byte("level: loud\n"), &cfg))
}

func TestLevelFlagValue(t *testing.T) {
	var l LogLevel
	require.NoError(t, l.Set("error"))
	assert.Equal(t, ERROR, l)
	assert.Error(t, l.Set("nope"))
}
