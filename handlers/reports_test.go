package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedReportBuildSurvivesFirstCallerCancel(t *testing.T) {
	const key = "shared-build-cancel"
	started := make(chan struct{})
	release := make(chan struct{})
	buildErr := make(chan error, 1)

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderDone := make(chan error, 1)
	go func() {
		_, err, _ := singleflightBuild(leaderCtx, key, func(ctx context.Context) (interface{}, error) {
			close(started)
			<-release
			buildErr <- ctx.Err()
			return "report", nil
		})
		leaderDone <- err
	}()

	<-started
	cancel()
	require.ErrorIs(t, <-leaderDone, context.Canceled)

	waiter := reportBuildGroup.DoChan(key, func() (interface{}, error) {
		t.Error("second build started while the first was in flight")
		return nil, nil
	})
	close(release)

	res := <-waiter
	require.NoError(t, res.Err)
	assert.Equal(t, "report", res.Val)
	assert.True(t, res.Shared)
	assert.NoError(t, <-buildErr)
}
