package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, StoreDriverFile, cfg.Store.Driver)
	assert.Equal(t, int64(500), cfg.Funding.MinInvestment)
	assert.Equal(t, int64(50000), cfg.Funding.MaxInvestment)
	assert.Equal(t, int64(50), cfg.Funding.MinDeposit)
	assert.Equal(t, int64(100), cfg.Funding.MinWithdrawal)
	assert.Equal(t, 0.03, cfg.Funding.PlatformFeeRate)
	assert.Equal(t, 0.02, cfg.Funding.WithdrawalFeeRate)
	assert.Equal(t, FeeRuleConfig{Kind: "flat", Value: 5}, cfg.Funding.DepositFees["bank_transfer"])
	assert.Equal(t, FeeRuleConfig{Kind: "percent", Value: 0.025}, cfg.Funding.DepositFees["card"])
	assert.Equal(t, 2*time.Second, cfg.Gateway.Delay)
	assert.Equal(t, 500*time.Millisecond, cfg.Business.OutboxInterval)
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
store:
  driver: memory
funding:
  max_investment: 100000
gateway:
  delay: 10ms
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, int64(100000), cfg.Funding.MaxInvestment)
	assert.Equal(t, int64(500), cfg.Funding.MinInvestment)
	assert.Equal(t, 10*time.Millisecond, cfg.Gateway.Delay)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CROWDFUND_SERVER_PORT", "7070")
	t.Setenv("CROWDFUND_FUNDING_MIN_DEPOSIT", "75")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, int64(75), cfg.Funding.MinDeposit)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
