package service

import (
	"context"
	"errors"
	"testing"

	"golang-paper-trader/internal/engine/config"
	"golang-paper-trader/pkg/common"
	"golang-paper-trader/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func riskDefaults() config.Risk {
	return config.Risk{
		ProfitTarget:                20,
		MaxHoldMinutes:              1440,
		PositionSizeAmount:          10000,
		CommissionRate:              0.0015,
		CommissionBaseFee:           0,
		MinCommission:               1,
		MaxCommission:               25,
		MaxPositionConcentrationPct: 0.25,
		MaxDailyTrades:              10,
		MaxDailyLoss:                500,
		CooldownSecondsPerSymbol:    900,
		MinTradeValue:               100,
	}
}

func newTestReloader(t *testing.T, configRepo *fakeConfigRepo) *LimitsReloader {
	t.Helper()
	log, err := logger.New("error", "json")
	require.NoError(t, err)
	return NewLimitsReloader(riskDefaults(), configRepo, log)
}

func TestLimitsReloader_DefaultsBeforeFirstReload(t *testing.T) {
	t.Parallel()
	r := newTestReloader(t, newFakeConfigRepo())

	limits := r.Current()
	assert.True(t, d("20").Equal(limits.ProfitTarget))
	assert.Equal(t, 1440, limits.MaxHoldMinutes)
	assert.Equal(t, 10, limits.MaxDailyTrades)
}

func TestLimitsReloader_AppliesOverrides(t *testing.T) {
	t.Parallel()
	repo := newFakeConfigRepo()
	repo.values[common.ConfigKeyProfitTarget] = "35.5"
	repo.values[common.ConfigKeyMaxDailyTrades] = "3"
	repo.values[common.ConfigKeyCooldownSeconds] = "60"
	r := newTestReloader(t, repo)

	require.NoError(t, r.Reload(context.Background()))

	limits := r.Current()
	assert.True(t, d("35.5").Equal(limits.ProfitTarget))
	assert.Equal(t, 3, limits.MaxDailyTrades)
	assert.Equal(t, 60, limits.CooldownSeconds)
	// Everything without an override keeps its file default.
	assert.True(t, d("10000").Equal(limits.PositionSizeAmount))
}

func TestLimitsReloader_InvalidOverrideKeepsDefault(t *testing.T) {
	t.Parallel()
	repo := newFakeConfigRepo()
	repo.values[common.ConfigKeyProfitTarget] = "not-a-number"
	repo.values[common.ConfigKeyMaxDailyTrades] = "3"
	r := newTestReloader(t, repo)

	require.NoError(t, r.Reload(context.Background()))

	limits := r.Current()
	assert.True(t, d("20").Equal(limits.ProfitTarget))
	assert.Equal(t, 3, limits.MaxDailyTrades)
}

func TestLimitsReloader_UnknownKeysIgnored(t *testing.T) {
	t.Parallel()
	repo := newFakeConfigRepo()
	repo.values[common.ConfigKeySignalCursor] = "2025-06-03T11:00:00Z"
	repo.values["something.else"] = "42"
	r := newTestReloader(t, repo)

	require.NoError(t, r.Reload(context.Background()))
	assert.True(t, d("20").Equal(r.Current().ProfitTarget))
}

func TestLimitsReloader_ReloadFailureKeepsSnapshot(t *testing.T) {
	t.Parallel()
	repo := newFakeConfigRepo()
	repo.values[common.ConfigKeyMaxDailyTrades] = "3"
	r := newTestReloader(t, repo)
	require.NoError(t, r.Reload(context.Background()))

	repo.getAll = errors.New("connection refused")
	require.Error(t, r.Reload(context.Background()))

	// The last good snapshot stays in effect.
	assert.Equal(t, 3, r.Current().MaxDailyTrades)
}

func TestLimitsReloader_RemovedOverrideRevertsToDefault(t *testing.T) {
	t.Parallel()
	repo := newFakeConfigRepo()
	repo.values[common.ConfigKeyProfitTarget] = "50"
	r := newTestReloader(t, repo)

	require.NoError(t, r.Reload(context.Background()))
	assert.True(t, d("50").Equal(r.Current().ProfitTarget))

	delete(repo.values, common.ConfigKeyProfitTarget)
	require.NoError(t, r.Reload(context.Background()))
	assert.True(t, d("20").Equal(r.Current().ProfitTarget))
}
