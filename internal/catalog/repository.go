package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/camila-duarte/galleria/internal/domain"
)

// Repository reads and writes the products table. The table name is
// configurable because staging and production share one database.
type Repository struct {
	db    *sql.DB
	table string
}

func NewRepository(db *sql.DB, table string) *Repository {
	if table == "" {
		table = "products"
	}
	return &Repository{db: db, table: table}
}

const productColumns = `id, slug, name, price, description, images, status, sold_at, order_ref,
		category, tags, inventory_number, display_number, primary_image, underside_image,
		dimensions, is_unique, created_at, updated_at`

func (r *Repository) scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	p := &domain.Product{}
	var (
		soldAt   sql.NullTime
		orderRef sql.NullString
		invNum   sql.NullInt64
	)
	err := row.Scan(
		&p.ID, &p.Slug, &p.Name, &p.Price, &p.Description, pq.Array(&p.Images), &p.Status,
		&soldAt, &orderRef, &p.Category, pq.Array(&p.Tags), &invNum, &p.DisplayNumber,
		&p.PrimaryImage, &p.UndersideImage, &p.Dimensions, &p.IsUnique, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if soldAt.Valid {
		t := soldAt.Time
		p.SoldAt = &t
	}
	if orderRef.Valid {
		p.OrderRef = orderRef.String
	}
	if invNum.Valid {
		n := int(invNum.Int64)
		p.InventoryNumber = &n
	}
	return p, nil
}

// ListActive returns sellable products ordered by inventory number. Rows
// without an inventory number are display-only and excluded. A non-null
// sold_at excludes the row even when the status column still says active,
// so rows written before the sold status existed cannot be listed.
func (r *Repository) ListActive(ctx context.Context) ([]domain.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE status = 'active' AND sold_at IS NULL AND inventory_number IS NOT NULL
		ORDER BY inventory_number ASC
	`, productColumns, pq.QuoteIdentifier(r.table))

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var products []domain.Product
	for rows.Next() {
		p, err := r.scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

// GetByInventoryNumber returns nil, nil when no row matches.
func (r *Repository) GetByInventoryNumber(ctx context.Context, number int) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE inventory_number = $1`,
		productColumns, pq.QuoteIdentifier(r.table))

	p, err := r.scanProduct(r.db.QueryRowContext(ctx, query, number))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetBySlug returns nil, nil when no row matches.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE slug = $1`,
		productColumns, pq.QuoteIdentifier(r.table))

	p, err := r.scanProduct(r.db.QueryRowContext(ctx, query, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// MarkSold flips the matching slugs to sold and attaches the provider order
// reference. Called by checkout after a successful payment.
func (r *Repository) MarkSold(ctx context.Context, slugs []string, soldAt time.Time, orderRef string) error {
	if len(slugs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET status = 'sold', sold_at = $2, order_ref = $3, updated_at = NOW()
		WHERE slug = ANY($1)
	`, pq.QuoteIdentifier(r.table))

	_, err := r.db.ExecContext(ctx, query, pq.Array(slugs), soldAt, orderRef)
	return err
}

// MarkSoldByOrderRef is the webhook path: it targets rows by the provider
// order reference instead of slugs, and is idempotent across redeliveries.
func (r *Repository) MarkSoldByOrderRef(ctx context.Context, orderRef string, soldAt time.Time) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = 'sold', sold_at = $2, updated_at = NOW()
		WHERE order_ref = $1
	`, pq.QuoteIdentifier(r.table))

	result, err := r.db.ExecContext(ctx, query, orderRef, soldAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// RevertSaleByOrderRef returns rows to sellable state after the provider
// reports the payment canceled or failed.
func (r *Repository) RevertSaleByOrderRef(ctx context.Context, orderRef string) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = 'active', sold_at = NULL, order_ref = NULL, updated_at = NOW()
		WHERE order_ref = $1
	`, pq.QuoteIdentifier(r.table))

	result, err := r.db.ExecContext(ctx, query, orderRef)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
