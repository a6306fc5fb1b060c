package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"doc2db/internal/errs"
	"doc2db/internal/metastore"
	_ "doc2db/internal/metastore/postgres"
)

func TestOpen_InvalidDSN(t *testing.T) {
	t.Parallel()

	_, err := metastore.Open(context.Background(), metastore.Config{Kind: "postgres", DSN: "postgres://%zz"})
	assert.True(t, errs.IsInvalidInput(err), "err=%v", err)
}

func TestStore_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("doc2db"),
		tcpostgres.WithUsername("doc2db"),
		tcpostgres.WithPassword("doc2db"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := metastore.Open(ctx, metastore.Config{Kind: "postgres", DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Bootstrap(ctx))
	require.NoError(t, s.Bootstrap(ctx))

	p, err := s.CreateProject(ctx, "books")
	require.NoError(t, err)
	assert.Positive(t, p.ID)

	e, err := s.CreateExtraction(ctx, metastore.Extraction{ProjectID: p.ID, SQLDDL: "x", SourceProvider: "primary"})
	require.NoError(t, err)

	got, err := s.GetExtraction(ctx, p.ID, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "x", got.SQLDDL)
	assert.True(t, got.CreatedAt.Equal(e.CreatedAt))

	_, err = s.GetExtraction(ctx, p.ID+1, e.ID)
	assert.True(t, errs.IsNotFound(err))
}
