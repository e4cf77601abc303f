package postgres

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quoteScope/internal/model"
)

// Store provides Postgres persistence for the pool registry and the quote
// journal.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables the store uses when they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// UpsertPools inserts or updates pool metadata.
func (s *Store) UpsertPools(ctx context.Context, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		batch.Queue(`
			INSERT INTO pools (
				chain_id, pool_address, token0, token1, fee, tick_spacing, first_seen_block, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
			ON CONFLICT (chain_id, pool_address)
			DO UPDATE SET
				token0 = EXCLUDED.token0,
				token1 = EXCLUDED.token1,
				fee = EXCLUDED.fee,
				tick_spacing = EXCLUDED.tick_spacing,
				first_seen_block = LEAST(pools.first_seen_block, EXCLUDED.first_seen_block),
				updated_at = now()
		`,
			int64(pool.ChainID),
			pool.Address.Hex(),
			pool.Token0.Hex(),
			pool.Token1.Hex(),
			int64(pool.Fee),
			pool.TickSpacing,
			int64(pool.FirstSeenBlock),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range pools {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// Pools returns every registered pool of a chain ordered by address.
func (s *Store) Pools(ctx context.Context, chainID uint64) ([]model.Pool, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT pool_address, token0, token1, fee, tick_spacing, first_seen_block
		FROM pools
		WHERE chain_id = $1
		ORDER BY pool_address
	`, int64(chainID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Pool
	for rows.Next() {
		var (
			address, token0, token1 string
			fee, firstSeen          int64
			spacing                 int32
		)
		if err := rows.Scan(&address, &token0, &token1, &fee, &spacing, &firstSeen); err != nil {
			return nil, err
		}
		if !common.IsHexAddress(address) || !common.IsHexAddress(token0) || !common.IsHexAddress(token1) {
			return nil, fmt.Errorf("pool row %s has a malformed address", address)
		}
		out = append(out, model.Pool{
			ChainID:        chainID,
			Address:        common.HexToAddress(address),
			Token0:         common.HexToAddress(token0),
			Token1:         common.HexToAddress(token1),
			Fee:            uint32(fee),
			TickSpacing:    spacing,
			FirstSeenBlock: uint64(firstSeen),
		})
	}
	return out, rows.Err()
}

// PutQuoteBatch appends quote records to the journal table.
func (s *Store) PutQuoteBatch(ctx context.Context, records []model.QuoteRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO quotes (
				chain_id, kind, token_in, token_out, amount_in, amount_out, price_per_token,
				price_impact_percent, slippage_percent, bound_kind, bound_amount, path, gas_estimate,
				quoted_at, created_at
			) VALUES (
				$1, $2, $3, $4,
				NULLIF($5::text, '')::numeric, NULLIF($6::text, '')::numeric, NULLIF($7::text, '')::numeric,
				NULLIF($8::text, '')::numeric, NULLIF($9::text, '')::numeric, NULLIF($10::text, ''),
				NULLIF($11::text, '')::numeric, $12, NULLIF($13::text, '')::numeric,
				$14::text::timestamptz, now()
			)
		`,
			int64(r.ChainID),
			r.Kind,
			r.TokenIn,
			r.TokenOut,
			r.AmountIn,
			r.AmountOut,
			r.PricePerToken,
			r.PriceImpactPercent,
			r.SlippagePercent,
			r.BoundKind,
			r.BoundAmount,
			r.Path,
			r.GasEstimate,
			r.QuotedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
