package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/safar/go-bookshop/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithOutput(config.LogConfig{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("isbn", "9780141187761").Info("book saved")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "book saved", entry["msg"])
	assert.Equal(t, "9780141187761", entry["isbn"])
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "chatty", Format: "text"})
	assert.Error(t, err)
}
