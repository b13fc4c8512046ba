package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"custos/internal/product/models"
	id "custos/pkg/domain"
	"custos/pkg/platform/sentinel"
	txcontext "custos/pkg/platform/tx"
)

// Postgres persists product snapshots, one row per id. Participates in
// the caller's transaction when one is present in the context, so the
// snapshot change and the audit append commit together.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// CreateIfAbsent relies on the primary key: exactly one concurrent
// insert for an id commits, the rest get unique_violation.
func (s *Postgres) CreateIfAbsent(ctx context.Context, product *models.Product) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO products (id, current_owner, is_genuine, status, details_uri, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		product.ID.String(),
		uuid.UUID(product.CurrentOwner),
		product.IsGenuine,
		product.Status,
		product.DetailsURI,
		product.RegisteredAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, productID id.ProductID) (*models.Product, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, current_owner, is_genuine, status, details_uri, registered_at
		FROM products
		WHERE id = $1
	`, productID.String())
	return scanProduct(row)
}

// Execute locks the row (FOR UPDATE), runs validate against the loaded
// snapshot, applies mutate, and writes the full snapshot back. Must run
// inside a transaction; without one the row lock would be released
// before the write.
func (s *Postgres) Execute(
	ctx context.Context,
	productID id.ProductID,
	validate func(*models.Product) error,
	mutate func(*models.Product),
) (*models.Product, error) {
	execer := s.execer(ctx)
	if _, inTx := txcontext.From(ctx); !inTx {
		return nil, fmt.Errorf("product execute requires a transaction")
	}

	row := execer.QueryRowContext(ctx, `
		SELECT id, current_owner, is_genuine, status, details_uri, registered_at
		FROM products
		WHERE id = $1
		FOR UPDATE
	`, productID.String())
	product, err := scanProduct(row)
	if err != nil {
		return nil, err
	}

	if err := validate(product); err != nil {
		return nil, err
	}
	mutate(product)

	_, err = execer.ExecContext(ctx, `
		UPDATE products
		SET current_owner = $2, is_genuine = $3, status = $4, details_uri = $5, registered_at = $6
		WHERE id = $1
	`,
		product.ID.String(),
		uuid.UUID(product.CurrentOwner),
		product.IsGenuine,
		product.Status,
		product.DetailsURI,
		product.RegisteredAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

// Count reports how many products are registered.
func (s *Postgres) Count(ctx context.Context) (int, error) {
	var count int
	err := s.execer(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

func scanProduct(row *sql.Row) (*models.Product, error) {
	var (
		product      models.Product
		productID    string
		currentOwner uuid.UUID
		registeredAt time.Time
	)
	err := row.Scan(&productID, &currentOwner, &product.IsGenuine, &product.Status, &product.DetailsURI, &registeredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}
	product.ID = id.ProductID(productID)
	product.CurrentOwner = id.PartyID(currentOwner)
	product.RegisteredAt = registeredAt
	return &product, nil
}
