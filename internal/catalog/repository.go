package catalog

import (
	"context"
	"database/sql"

	"github.com/shopme-store/shopme-backend/internal/domain"
)

// Repository serves one catalog table. The regular and featured
// catalogs share the same shape, so the table name is the only
// difference between the two instances.
type Repository struct {
	db    *sql.DB
	table string
}

func NewProductRepository(db *sql.DB) *Repository {
	return &Repository{db: db, table: "products"}
}

func NewTopProductRepository(db *sql.DB) *Repository {
	return &Repository{db: db, table: "top_products"}
}

func (r *Repository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT external_id, title, img, rating, price, description, aos_delay
		FROM `+r.table+`
		ORDER BY external_id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Img, &p.Rating, &p.Price, &p.Description, &p.AosDelay); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if products == nil {
		products = []domain.Product{}
	}

	return products, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	p := &domain.Product{}

	err := r.db.QueryRowContext(ctx, `
		SELECT external_id, title, img, rating, price, description, aos_delay
		FROM `+r.table+`
		WHERE external_id = $1
	`, id).Scan(&p.ID, &p.Title, &p.Img, &p.Rating, &p.Price, &p.Description, &p.AosDelay)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return p, nil
}

func (r *Repository) Create(ctx context.Context, p *domain.Product) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO `+r.table+` (external_id, title, img, rating, price, description, aos_delay)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.Title, p.Img, p.Rating, p.Price, p.Description, p.AosDelay)

	return err
}

// Update rewrites the row identified by the external id. Returns
// (nil, nil) when no such row exists.
func (r *Repository) Update(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE `+r.table+`
		SET title = $2, img = $3, rating = $4, price = $5, description = $6, aos_delay = $7
		WHERE external_id = $1
	`, p.ID, p.Title, p.Img, p.Rating, p.Price, p.Description, p.AosDelay)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, p.ID)
}

// Delete reports whether a row was actually removed.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM `+r.table+` WHERE external_id = $1
	`, id)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}
