package repository

import (
	"context"
	"errors"
	"fmt"

	"sweet-heaven/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const foreignKeyViolation = "23503"

// cartRepository implements the CartRepository interface using PostgreSQL.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

func (r *cartRepository) List(ctx context.Context, sessionID uuid.UUID) ([]model.CartLine, error) {
	query := `
		SELECT p.id, p.name, p.price, p.category, p.detail, p.images, p.stock, c.quantity
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.session_id = $1
		ORDER BY c.added_at, c.product_id
	`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		r.logger.Error().Err(err).Str("session_id", sessionID.String()).Msg("failed to query cart")
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	defer rows.Close()

	lines := []model.CartLine{}
	for rows.Next() {
		var l model.CartLine
		err := rows.Scan(&l.ID, &l.Name, &l.Price, &l.Category, &l.Detail, &l.Images, &l.Stock, &l.Quantity)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan cart row")
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating cart rows")
		return nil, fmt.Errorf("error iterating cart: %w", err)
	}

	return lines, nil
}

func (r *cartRepository) SetQuantity(ctx context.Context, sessionID uuid.UUID, productID int64, quantity int) error {
	if quantity <= 0 {
		query := `DELETE FROM cart_items WHERE session_id = $1 AND product_id = $2`
		if _, err := r.pool.Exec(ctx, query, sessionID, productID); err != nil {
			r.logger.Error().Err(err).
				Str("session_id", sessionID.String()).
				Int64("product_id", productID).
				Msg("failed to remove cart line")
			return fmt.Errorf("failed to remove cart line: %w", err)
		}
		return nil
	}

	query := `
		INSERT INTO cart_items (session_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity
	`
	if _, err := r.pool.Exec(ctx, query, sessionID, productID, quantity); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			r.logger.Warn().Int64("product_id", productID).Msg("cart line for unknown product")
			return model.ErrProductNotFound
		}
		r.logger.Error().Err(err).
			Str("session_id", sessionID.String()).
			Int64("product_id", productID).
			Int("quantity", quantity).
			Msg("failed to set cart quantity")
		return fmt.Errorf("failed to set cart quantity: %w", err)
	}

	return nil
}

func (r *cartRepository) Clear(ctx context.Context, sessionID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE session_id = $1`, sessionID)
	if err != nil {
		r.logger.Error().Err(err).Str("session_id", sessionID.String()).Msg("failed to clear cart")
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	r.logger.Debug().
		Str("session_id", sessionID.String()).
		Int64("removed", tag.RowsAffected()).
		Msg("cart cleared")

	return nil
}
