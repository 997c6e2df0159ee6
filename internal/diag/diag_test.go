package diag

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLogLevel(t *testing.T) {
	defer Log.SetLevel(Log.GetLevel())

	tests := []struct {
		in   string
		want logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"INFO", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"warning", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.NoError(t, SetLogLevel(tt.in))
			assert.Equal(t, tt.want, Log.GetLevel())
		})
	}

	assert.Error(t, SetLogLevel("loud"))
}

func TestOrNop(t *testing.T) {
	assert.Equal(t, Nop, OrNop(nil))
	assert.Equal(t, Logger(Log), OrNop(Log))
}
