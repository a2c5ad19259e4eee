package repository_test

import (
	"context"
	"testing"

	"shop/internal/domain/model"
	infraRepo "shop/internal/infra/repository"
	repo "shop/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLogGormRepository_FilterAndNewestFirst(t *testing.T) {
	ctx := context.Background()
	r := infraRepo.NewAuditLogGormRepository(newTestDB(t))

	seed := []model.AuditLog{
		{ActorUserID: 1, Action: model.AuditActionCreateProduct, ResourceType: model.AuditResourceProduct, ResourceID: 10},
		{ActorUserID: 1, Action: model.AuditActionUpdateProduct, ResourceType: model.AuditResourceProduct, ResourceID: 10},
		{ActorUserID: 2, Action: model.AuditActionCreateProduct, ResourceType: model.AuditResourceProduct, ResourceID: 11},
	}
	for _, l := range seed {
		require.NoError(t, r.Create(ctx, l))
	}

	total, err := r.Count(ctx, repo.AuditLogFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	all, err := r.List(ctx, repo.AuditLogFilter{}, 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(11), all[0].ResourceID)

	byResource, err := r.List(ctx, repo.AuditLogFilter{ResourceID: 10}, 0, 10)
	require.NoError(t, err)
	require.Len(t, byResource, 2)
	assert.Equal(t, model.AuditActionUpdateProduct, byResource[0].Action)

	creates, err := r.Count(ctx, repo.AuditLogFilter{Action: model.AuditActionCreateProduct, ActorUserID: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(1), creates)

	window, err := r.List(ctx, repo.AuditLogFilter{}, 2, 2)
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, model.AuditActionCreateProduct, window[0].Action)
	assert.Equal(t, int64(10), window[0].ResourceID)
}
