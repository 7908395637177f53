// Package shops maps account identifiers to shop scopes. Every engine
// operation resolves its account first; all warehouse queries are scoped by
// the resulting shop ID.
package shops

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrShopNotFound is returned when no shop is registered for the account.
var ErrShopNotFound = errors.New("shop not found")

// Resolver maps an account identifier to its shop-scope identifier.
type Resolver interface {
	ShopID(ctx context.Context, accountID string) (string, error)
}

// PostgresResolver reads account/shop mappings from the metadata database.
type PostgresResolver struct {
	db *sql.DB
}

// NewPostgresResolver creates a resolver over the given handle.
func NewPostgresResolver(db *sql.DB) *PostgresResolver {
	return &PostgresResolver{db: db}
}

// ShopID returns the shop scope for an account.
func (r *PostgresResolver) ShopID(ctx context.Context, accountID string) (string, error) {
	var shopID string
	err := r.db.QueryRowContext(ctx,
		`SELECT shop_id FROM accounts WHERE account_id = $1`, accountID).Scan(&shopID)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: account %q", ErrShopNotFound, accountID)
	}
	if err != nil {
		return "", fmt.Errorf("shop lookup for account %q: %w", accountID, err)
	}
	return shopID, nil
}
