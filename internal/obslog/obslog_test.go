package obslog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/remembercore/memcore/internal/obslog"
)

func TestNewTagsComponent(t *testing.T) {
	log := obslog.New("access")
	require.NotNil(t, log)
}

func TestWarnEscalationFailureLogsFieldsAsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	obslog.WarnEscalationFailure(context.Background(), &log, "owner1", "accessor1", "mem1", errors.New("kv write failed"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "escalation bookkeeping failed", entry["message"])
	require.Equal(t, "owner1", entry["owner_id"])
	require.Equal(t, "accessor1", entry["accessor_id"])
	require.Equal(t, "mem1", entry["memory_id"])
	require.Equal(t, "kv write failed", entry["error"])
	require.Equal(t, "warn", entry["level"])
}
