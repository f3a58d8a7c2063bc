package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Level(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, New("debug").GetLevel())
	assert.Equal(t, logrus.InfoLevel, New("nonsense").GetLevel())
}

func TestLogError_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := New("info")
	logger.SetOutput(&buf)

	LogError(logger, "payments", "ConfirmPayment", "invoice generation", map[string]int64{"payment_id": 9}, errors.New("duplicate key"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "payments", entry["module"])
	assert.Equal(t, "ConfirmPayment", entry["funcName"])
	assert.Equal(t, "duplicate key", entry["msg"])
	assert.NotNil(t, entry["data"])
}
