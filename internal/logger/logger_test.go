package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"footballshop/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.New(&buf, "json", "info")
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("product created")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "product created", entry["msg"])
	assert.Equal(t, "info", entry["level"])
}

func TestNew_InvalidSettings(t *testing.T) {
	_, err := logger.New(&bytes.Buffer{}, "json", "loud")
	assert.Error(t, err)

	_, err = logger.New(&bytes.Buffer{}, "xml", "info")
	assert.Error(t, err)
}
