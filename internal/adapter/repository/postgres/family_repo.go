package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/valuations/internal/domain"
	"github.com/iho/valuations/internal/infrastructure/postgres/generated"
)

// FamilyRepository implements usecase.FamilyRepository.
type FamilyRepository struct {
	queries *generated.Queries
}

// NewFamilyRepository creates a new FamilyRepository.
func NewFamilyRepository(pool *pgxpool.Pool) *FamilyRepository {
	return newFamilyRepository(pool)
}

func newFamilyRepository(db generated.DBTX) *FamilyRepository {
	return &FamilyRepository{queries: generated.New(db)}
}

// GetByID retrieves a family by ID.
func (r *FamilyRepository) GetByID(ctx context.Context, id string) (*domain.Family, error) {
	row, err := r.queries.GetFamilyByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrFamilyNotFound)
	}

	return &domain.Family{
		ID:        row.ID,
		Name:      row.Name,
		Currency:  row.Currency,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}, nil
}
