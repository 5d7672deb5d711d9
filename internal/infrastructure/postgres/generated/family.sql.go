package generated

import (
	"context"
)

const getFamilyByID = `-- name: GetFamilyByID :one
SELECT id, name, currency, created_at, updated_at FROM families WHERE id = $1
`

func (q *Queries) GetFamilyByID(ctx context.Context, id string) (Family, error) {
	row := q.db.QueryRow(ctx, getFamilyByID, id)
	var i Family
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Currency,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
