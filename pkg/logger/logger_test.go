package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	l, err := NewLogger(true, "debug")
	require.NoError(t, err)
	assert.NotNil(t, l.SugaredLogger)

	l.Named("test").With("k", "v").Debug("message", "key", 1)
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger(false, "loud")
	assert.Error(t, err)
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	assert.NotPanics(t, func() {
		l.Info("ignored", "key", "value")
		l.Warn("ignored")
	})
}
