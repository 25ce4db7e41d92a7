package service

import (
	"testing"
	"time"

	"github.com/caredesk/pharmacy-api/internal/domain/entity"
	"github.com/caredesk/pharmacy-api/internal/domain/enum"
	"github.com/caredesk/pharmacy-api/internal/domain/repository"
	"github.com/caredesk/pharmacy-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateItem_Deduplicates(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	item := env.seedItem(t, "Insulin", "INS-20", 25, 5)
	env.seedBatch(t, item.ID, 3, daysFromNow(90))
	item.CurrentStock = 3

	require.NoError(t, env.alerts.EvaluateItem(env.ctx, item))
	require.NoError(t, env.alerts.EvaluateItem(env.ctx, item))
	require.NoError(t, env.alerts.EvaluateItem(env.ctx, item))

	result, err := env.alerts.ListAlerts(env.ctx, &repository.AlertFilterParams{UnresolvedOnly: true})
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
}

func TestEvaluateItem_OutOfStockPrecedence(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	item := env.seedItem(t, "Insulin", "INS-21", 25, 5)
	item.CurrentStock = 0

	require.NoError(t, env.alerts.EvaluateItem(env.ctx, item))

	result, err := env.alerts.ListAlerts(env.ctx, &repository.AlertFilterParams{UnresolvedOnly: true})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, enum.AlertTypeOutOfStock, result.Items[0].AlertType)
}

func TestEvaluateItem_HealthyStockRaisesNothing(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	item := env.seedItem(t, "Insulin", "INS-22", 25, 5)
	item.CurrentStock = 50

	require.NoError(t, env.alerts.EvaluateItem(env.ctx, item))

	result, err := env.alerts.ListAlerts(env.ctx, &repository.AlertFilterParams{})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
}

func TestResolveAlert_AllowsReRaise(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	item := env.seedItem(t, "Insulin", "INS-23", 25, 5)
	item.CurrentStock = 2

	require.NoError(t, env.alerts.EvaluateItem(env.ctx, item))

	result, err := env.alerts.ListAlerts(env.ctx, &repository.AlertFilterParams{UnresolvedOnly: true})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)

	resolved, err := env.alerts.ResolveAlert(env.ctx, result.Items[0].ID)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.NotNil(t, resolved.ResolvedAt)

	// Resolving again is rejected.
	_, err = env.alerts.ResolveAlert(env.ctx, resolved.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))

	// Once resolved, the condition can raise a fresh alert.
	require.NoError(t, env.alerts.EvaluateItem(env.ctx, item))

	unresolved, err := env.alerts.ListAlerts(env.ctx, &repository.AlertFilterParams{UnresolvedOnly: true})
	require.NoError(t, err)
	assert.Len(t, unresolved.Items, 1)

	all, err := env.alerts.ListAlerts(env.ctx, &repository.AlertFilterParams{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
}

func TestWarnExpiring(t *testing.T) {
	env := newTestEnv(t, entity.TenantSettings{})
	item := env.seedItem(t, "Amoxicillin", "AMX-20", 10, 0)
	env.seedBatch(t, item.ID, 10, daysFromNow(3))
	env.seedBatch(t, item.ID, 10, daysFromNow(90))

	warned, err := env.ledger.WarnExpiring(env.ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, warned)

	result, err := env.alerts.ListAlerts(env.ctx, &repository.AlertFilterParams{UnresolvedOnly: true})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, enum.AlertTypeExpiringSoon, result.Items[0].AlertType)

	// Re-running the warning does not duplicate the alert.
	_, err = env.ledger.WarnExpiring(env.ctx, 7*24*time.Hour)
	require.NoError(t, err)
	result, err = env.alerts.ListAlerts(env.ctx, &repository.AlertFilterParams{UnresolvedOnly: true})
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
}
