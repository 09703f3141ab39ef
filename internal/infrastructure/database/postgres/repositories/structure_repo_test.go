//go:build integration

// Integration tests for the structure repository.  Require Docker and are
// gated behind the "integration" build tag.
package repositories_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/ChemNotation/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/ChemNotation/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/ChemNotation/pkg/errors"
	"github.com/turtacn/ChemNotation/pkg/types/chem"
	"github.com/turtacn/ChemNotation/pkg/types/common"
)

const structureSchema = `
CREATE TABLE structure_records (
    id                UUID PRIMARY KEY,
    canonical_form    TEXT NOT NULL UNIQUE,
    molecular_formula TEXT NOT NULL,
    molecular_weight  DOUBLE PRECISION NOT NULL,
    source_notation   TEXT NOT NULL DEFAULT '',
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// startPostgres launches a PostgreSQL 16 container and returns a pool with
// the structure_records schema applied.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "chemnote_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/chemnote_test?sslmode=disable", host, port.Port())
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, structureSchema)
	require.NoError(t, err)
	return pool
}

func ethanolRecord() *chem.StructureRecordDTO {
	return &chem.StructureRecordDTO{
		CanonicalForm:    "CCO",
		MolecularFormula: "C2H6O",
		MolecularWeight:  46.07,
		SourceNotation:   "OCC",
	}
}

func TestStructureRepository_SaveAndFind(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewStructureRepository(pool, logging.NewNopLogger())
	ctx := context.Background()

	saved, err := repo.Save(ctx, ethanolRecord())
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	byID, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "CCO", byID.CanonicalForm)
	assert.InDelta(t, 46.07, byID.MolecularWeight, 0.001)

	byCanonical, err := repo.FindByCanonical(ctx, "CCO")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, byCanonical.ID)
}

func TestStructureRepository_SaveIsIdempotentPerCanonicalForm(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewStructureRepository(pool, logging.NewNopLogger())
	ctx := context.Background()

	first, err := repo.Save(ctx, ethanolRecord())
	require.NoError(t, err)

	again := ethanolRecord()
	again.SourceNotation = "C(O)C"
	second, err := repo.Save(ctx, again)
	require.NoError(t, err)

	// Same compound, same row: the conflict refreshes the notation only.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "C(O)C", second.SourceNotation)

	_, total, err := repo.List(ctx, common.Pagination{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestStructureRepository_ListPaginates(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewStructureRepository(pool, logging.NewNopLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := repo.Save(ctx, &chem.StructureRecordDTO{
			CanonicalForm:    fmt.Sprintf("C%d", i),
			MolecularFormula: "CH4",
			MolecularWeight:  16.04,
		})
		require.NoError(t, err)
	}

	page, total, err := repo.List(ctx, common.Pagination{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page, 2)

	last, _, err := repo.List(ctx, common.Pagination{Page: 3, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, last, 1)
}

func TestStructureRepository_NotFound(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewStructureRepository(pool, logging.NewNopLogger())
	ctx := context.Background()

	_, err := repo.FindByCanonical(ctx, "CCN")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))

	err = repo.Delete(ctx, common.NewID())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}
