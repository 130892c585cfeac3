package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  zerolog.Level
	}{
		{"debug", "debug", zerolog.DebugLevel},
		{"warn upper case", "WARN", zerolog.WarnLevel},
		{"empty falls back to info", "", zerolog.InfoLevel},
		{"garbage falls back to info", "verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.level, false, &bytes.Buffer{})
			assert.Equal(t, tt.want, l.GetLevel())
		})
	}
}

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New("info", false, &buf)

	l.Info().Str("tenant", "7").Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["message"])
	assert.Equal(t, "7", line["tenant"])
	assert.Contains(t, line, "time")
}

func TestCronLoggerKeepsJobPanicsStructured(t *testing.T) {
	var buf bytes.Buffer
	l := NewCronLogger(New("info", false, &buf))

	job := cron.NewChain(cron.Recover(l)).Then(cron.FuncJob(func() { panic("boom") }))
	job.Run()

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "cron", line["component"])
	assert.Equal(t, "panic", line["message"])
	assert.Equal(t, "boom", line["error"])
	assert.Contains(t, line, "stack")
}

func TestCronLoggerInfoIsDebug(t *testing.T) {
	var buf bytes.Buffer
	l := NewCronLogger(New("info", false, &buf))

	l.Info("skip", "odd")
	assert.Empty(t, buf.String())

	l = NewCronLogger(New("debug", false, &buf))
	l.Info("skip", "job", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "skip", line["message"])
	assert.Equal(t, float64(3), line["job"])
}
