package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogUsableBeforeSetup(t *testing.T) {
	assert.NotNil(t, Log)
	assert.NotPanics(t, func() {
		Debug("arranque", slog.String("component", "worker"))
	})
}

func TestSetupSelectsHandlerByEnvironment(t *testing.T) {
	Setup("production")
	assert.IsType(t, &slog.JSONHandler{}, Log.Handler())

	Setup("development")
	assert.IsType(t, &slog.TextHandler{}, Log.Handler())
}
