package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aTrapDeer/portfolio-backend/internal/config"
	"github.com/aTrapDeer/portfolio-backend/internal/db"
	"github.com/aTrapDeer/portfolio-backend/internal/logger"
	"github.com/aTrapDeer/portfolio-backend/internal/models"
	"github.com/aTrapDeer/portfolio-backend/internal/storage"
)

func newStore(t *testing.T) *storage.Storage {
	t.Helper()
	cfg := config.Database{Engine: config.EngineSQLite, DataDir: t.TempDir(), SQLiteFile: "portfolio.db"}
	gdb, err := db.Open(cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, db.Migrate(gdb))
	return storage.NewGorm(gdb, storage.DefaultCacheTTL)
}

func TestSeedFillsEmptyDatabase(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	res, err := Run(ctx, store, logger.Discard())
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Empty(t, res.Failed)
	assert.Equal(t, len(projects()), res.Created["projects"])
	assert.Equal(t, 1, res.Created["messages"])

	got, err := store.Skills(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(skills()))
	assert.Equal(t, models.DefaultSkillIcon, got[0].Icon)

	exps, err := store.Experiences(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultExperienceType, exps[0].Type)
	assert.Equal(t, "Education", exps[1].Type)
}

func TestSeedSkipsWhenProjectsExist(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := Run(ctx, store, logger.Discard())
	require.NoError(t, err)

	res, err := Run(ctx, store, logger.Discard())
	require.NoError(t, err)
	assert.True(t, res.Skipped)

	ps, err := store.Projects(ctx)
	require.NoError(t, err)
	assert.Len(t, ps, len(projects()))
}

func TestSampleInputsAreValid(t *testing.T) {
	for _, p := range projects() {
		assert.Empty(t, p.Validate(false), *p.Title)
	}
	for _, sk := range skills() {
		assert.Empty(t, sk.Validate(false), *sk.Name)
	}
	for _, e := range experiences() {
		assert.Empty(t, e.Validate(false), *e.Role)
	}
}

