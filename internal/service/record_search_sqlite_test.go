package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/autohub-api/internal/models"
	"github.com/noah-isme/autohub-api/internal/repository"
	"github.com/noah-isme/autohub-api/pkg/config"
	"github.com/noah-isme/autohub-api/pkg/database"
)

func newSQLiteRecordService(t *testing.T) (*repository.RecordRepository, *RecordService) {
	t.Helper()
	cfg := config.DatabaseConfig{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "search.db")}
	require.NoError(t, database.Migrate(cfg))
	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := repository.NewRecordRepository(db)
	return repo, NewRecordService(repo, nil, nil, nil, nil)
}

func TestStaffSearchPagesThroughEveryMatch(t *testing.T) {
	repo, svc := newSQLiteRecordService(t)
	ctx := context.Background()

	for i := 0; i < 520; i++ {
		require.NoError(t, repo.Create(ctx, &models.InspectionRecord{
			Brand: "Toyota", Type: "Avanza", Model: "2020", Color: "White",
			ChassisNumber: fmt.Sprintf("TY%04d", i), InspectorID: inspectorA.ID, InspectorName: "alice",
		}))
	}
	require.NoError(t, repo.Create(ctx, &models.InspectionRecord{
		Brand: "Honda", Type: "Jazz", Model: "2019", Color: "Red",
		ChassisNumber: "HN0001", InspectorID: inspectorB.ID, InspectorName: "bob",
	}))

	first, err := svc.Search(ctx, adminActor, models.SearchFilter{Brand: "Toyota"})
	require.NoError(t, err)
	require.NotNil(t, first.Pagination)
	assert.Equal(t, 520, first.Pagination.TotalCount)
	assert.Equal(t, defaultSearchPageSize, first.Len())

	seen := make(map[string]struct{})
	for page := 1; ; page++ {
		result, err := svc.Search(ctx, adminActor, models.SearchFilter{Brand: "Toyota", Page: page, PageSize: 1000})
		require.NoError(t, err)
		assert.Equal(t, maxSearchPageSize, result.Pagination.PageSize)
		if result.Len() == 0 {
			break
		}
		for _, view := range result.Staff {
			assert.Equal(t, "Toyota", view.Brand)
			seen[view.ID] = struct{}{}
		}
	}
	assert.Len(t, seen, 520)
}

func TestStaffSearchTreatsWildcardsLiterally(t *testing.T) {
	repo, svc := newSQLiteRecordService(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.InspectionRecord{Brand: "Toyota", ChassisNumber: "AB_12", InspectorID: inspectorA.ID}))
	require.NoError(t, repo.Create(ctx, &models.InspectionRecord{Brand: "Toyota", ChassisNumber: "ABX12", InspectorID: inspectorA.ID}))

	result, err := svc.Search(ctx, moderator, models.SearchFilter{ChassisNumber: "b_1"})
	require.NoError(t, err)
	require.Equal(t, 1, result.Len())
	assert.Equal(t, "AB_12", result.Staff[0].ChassisNumber)
	assert.Equal(t, 1, result.Pagination.TotalCount)
}
