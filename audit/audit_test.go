package audit

import (
	"context"
	"testing"
	"time"

	"github.com/margindesk/margindesk_backend/config"
	"github.com/margindesk/margindesk_backend/models"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogSinkWritesSyncFields(t *testing.T) {
	logger, hook := test.NewNullLogger()
	l := &models.SyncLog{SyncType: models.SyncTypeEmployees, Status: models.SyncStatusSuccess, RecordsSynced: 3, FinishedAt: time.Now()}

	require.NoError(t, LogSink{Logger: logger}.Publish(context.Background(), SyncCompleted(l)))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, EventSyncCompleted, entry.Data["event"])
	assert.Equal(t, models.SyncTypeEmployees, entry.Data["sync_type"])
	assert.Equal(t, 3, entry.Data["records_synced"])
}

func TestNewSinkWithoutTopicLogs(t *testing.T) {
	logger, _ := test.NewNullLogger()
	sink := NewSink(context.Background(), &config.Settings{}, logger)
	_, ok := sink.(LogSink)
	assert.True(t, ok)
}
