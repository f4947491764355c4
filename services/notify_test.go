package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", truncateRunes("short", 10))
	assert.Equal(t, "abc", truncateRunes("abc", 3))
	assert.Equal(t, "ab...", truncateRunes("abcd", 2))
	assert.Equal(t, "Привет...", truncateRunes("Привет, мир", 6))
}

func TestLogNotifierKeepsValidUTF8(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	n := LogNotifier{Log: zap.New(core).Sugar()}

	// 2-байтовые руны: обрезка по байтам на 200 попала бы в середину символа
	message := "x" + strings.Repeat("ñ", 300)
	n.Alert("Error", message)

	require.Equal(t, 1, logs.Len())
	logged, ok := logs.All()[0].ContextMap()["message"].(string)
	require.True(t, ok)
	assert.True(t, utf8.ValidString(logged))
	assert.Equal(t, maxAlertLogRunes+3, utf8.RuneCountInString(logged))
	assert.True(t, strings.HasSuffix(logged, "..."))
}
