package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talhadevelopes/a11yguard-sub001/pkg/log"
)

func TestLogWithDetail(t *testing.T) {
	var buf bytes.Buffer
	ctx := log.WithLogger(context.Background(), log.NewWithWriter(log.Config{Level: "info"}, &buf))

	LogWithDetail(ctx, ActionSaveAnalysis, "org-x", "site-1", "issues=3", "analysis saved")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, log.LogTypeAudit, entry[log.FieldLogType])
	assert.Equal(t, ActionSaveAnalysis, entry[FieldAction])
	assert.Equal(t, "org-x", entry[log.FieldOrganizationID])
	assert.Equal(t, "site-1", entry[FieldWebsiteID])
	assert.Equal(t, "issues=3", entry[FieldDetail])
}
