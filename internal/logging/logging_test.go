package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/askiada/go-tipping-ensemble/internal/logging"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		level, format string
		expected      zapcore.Level
	}{
		"json info":     {level: "info", format: "json", expected: zapcore.InfoLevel},
		"console debug": {level: "debug", format: "console", expected: zapcore.DebugLevel},
		"default":       {level: "warn", format: "", expected: zapcore.WarnLevel},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			log, lvl, err := logging.New(tc.level, tc.format)
			require.NoError(t, err)
			require.NotNil(t, log)

			assert.Equal(t, tc.expected, lvl.Level())
			assert.True(t, log.Core().Enabled(tc.expected))
			assert.False(t, log.Core().Enabled(tc.expected-1))

			lvl.SetLevel(zapcore.ErrorLevel)
			assert.False(t, log.Core().Enabled(tc.expected))
		})
	}
}

func TestNewErrors(t *testing.T) {
	t.Parallel()

	_, _, err := logging.New("loud", "json")
	require.Error(t, err)

	_, _, err = logging.New("info", "xml")
	require.Error(t, err)
}
