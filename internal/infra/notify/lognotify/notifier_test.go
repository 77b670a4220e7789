package lognotify

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/secaudit/internal/domain/scanning"
	"github.com/ahrav/secaudit/pkg/common/logger"
)

func TestNotifier_LogsAtSeverityLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.LevelDebug, "test", func(context.Context) string { return "" })

	n := New(log)
	require.NoError(t, n.Notify(context.Background(), scanning.Notification{
		Title:     "Security scan completed",
		Severity:  "high",
		JobID:     "job-1",
		ActionURL: "/v1/scans/job-1",
	}))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "job-1", rec["job_id"])
	assert.Equal(t, "/v1/scans/job-1", rec["action_url"])
}
