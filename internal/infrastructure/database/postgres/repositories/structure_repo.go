// Package repositories implements PostgreSQL persistence for validated
// structures.  Records are keyed by canonical form, so re-validating the same
// compound under a different notation never creates a duplicate row.
package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/ChemNotation/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/ChemNotation/pkg/errors"
	"github.com/turtacn/ChemNotation/pkg/types/chem"
	"github.com/turtacn/ChemNotation/pkg/types/common"
)

// ErrRecordNotFound is returned when no structure matches the lookup key.
var ErrRecordNotFound = apperrors.New(apperrors.ErrCodeNotFound, "structure record not found")

// StructureRepository persists validated structure records.
type StructureRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewStructureRepository constructs a ready-to-use StructureRepository.
func NewStructureRepository(pool *pgxpool.Pool, log logging.Logger) *StructureRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &StructureRepository{pool: pool, logger: log.Named("repo.structure")}
}

const structureColumns = `id, canonical_form, molecular_formula, molecular_weight,
       source_notation, created_at, updated_at`

// ─────────────────────────────────────────────────────────────────────────────
// Save — upsert keyed by canonical form
// ─────────────────────────────────────────────────────────────────────────────

// Save inserts the record, or refreshes source_notation and updated_at when
// the canonical form is already registered.  The stored record (existing ID
// preserved on conflict) is returned.
func (r *StructureRepository) Save(ctx context.Context, rec *chem.StructureRecordDTO) (*chem.StructureRecordDTO, error) {
	now := time.Now().UTC()
	if rec.ID == "" {
		rec.ID = common.NewID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	row := r.pool.QueryRow(ctx, `
		INSERT INTO structure_records (
			id, canonical_form, molecular_formula, molecular_weight,
			source_notation, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (canonical_form) DO UPDATE SET
			source_notation = EXCLUDED.source_notation,
			updated_at      = EXCLUDED.updated_at
		RETURNING `+structureColumns,
		rec.ID, rec.CanonicalForm, rec.MolecularFormula, rec.MolecularWeight,
		rec.SourceNotation, rec.CreatedAt, rec.UpdatedAt,
	)

	saved, err := scanStructure(row)
	if err != nil {
		r.logger.Error("failed to save structure record",
			logging.String("canonical", rec.CanonicalForm), logging.Err(err))
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to save structure record")
	}
	return saved, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Lookups
// ─────────────────────────────────────────────────────────────────────────────

// FindByID fetches one record by primary key.
func (r *StructureRepository) FindByID(ctx context.Context, id common.ID) (*chem.StructureRecordDTO, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+structureColumns+`
		FROM structure_records WHERE id = $1`, id)
	return r.one(row, "id", string(id))
}

// FindByCanonical fetches one record by its canonical form.
func (r *StructureRepository) FindByCanonical(ctx context.Context, canonical string) (*chem.StructureRecordDTO, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+structureColumns+`
		FROM structure_records WHERE canonical_form = $1`, canonical)
	return r.one(row, "canonical", canonical)
}

func (r *StructureRepository) one(row pgx.Row, keyName, key string) (*chem.StructureRecordDTO, error) {
	rec, err := scanStructure(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		r.logger.Error("structure lookup failed",
			logging.String(keyName, key), logging.Err(err))
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "structure lookup failed")
	}
	return rec, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// List — newest first, paginated
// ─────────────────────────────────────────────────────────────────────────────

// List returns one page of records ordered by creation time descending,
// together with the total row count for the pagination envelope.
func (r *StructureRepository) List(ctx context.Context, p common.Pagination) ([]*chem.StructureRecordDTO, int64, error) {
	if err := p.Validate(); err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.CodeInvalidParam, "invalid pagination")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM structure_records`).Scan(&total); err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to count structure records")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+structureColumns+`
		FROM structure_records
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`, p.PageSize, p.Offset())
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to list structure records")
	}
	defer rows.Close()

	var out []*chem.StructureRecordDTO
	for rows.Next() {
		rec, err := scanStructure(rows)
		if err != nil {
			return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to scan structure record")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to iterate structure records")
	}
	return out, total, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete
// ─────────────────────────────────────────────────────────────────────────────

// Delete removes a record by ID.  Deleting an absent record returns
// ErrRecordNotFound.
func (r *StructureRepository) Delete(ctx context.Context, id common.ID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM structure_records WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to delete structure record")
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func scanStructure(row pgx.Row) (*chem.StructureRecordDTO, error) {
	var rec chem.StructureRecordDTO
	err := row.Scan(
		&rec.ID, &rec.CanonicalForm, &rec.MolecularFormula, &rec.MolecularWeight,
		&rec.SourceNotation, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
