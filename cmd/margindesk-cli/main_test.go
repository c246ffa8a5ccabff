package main

import (
	"bytes"
	"testing"

	"github.com/margindesk/margindesk_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCommandPrintsValidToken(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "cli-secret")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"token", "--user", "9", "--role", "finance"})
	require.NoError(t, rootCmd.Execute())

	claim, err := utils.JwtValidate("cli-secret", string(bytes.TrimSpace(out.Bytes())))
	require.NoError(t, err)
	assert.Equal(t, 9, claim.ID)
	assert.Equal(t, "finance", claim.Role)
}

func TestSyncRejectsUnknownTypeBeforeConnecting(t *testing.T) {
	rootCmd.SetArgs([]string{"sync", "payroll"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sync type")
}

func TestReportRejectsBadMonth(t *testing.T) {
	rootCmd.SetArgs([]string{"report", "pod", "--pod", "1", "--from", "April", "--to", "2024-05"})
	assert.Error(t, rootCmd.Execute())
}
