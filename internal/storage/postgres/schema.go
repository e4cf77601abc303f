package postgres

// Amounts are stored as NUMERIC text so raw uint256 values survive intact.
const schema = `
CREATE TABLE IF NOT EXISTS pools (
	chain_id BIGINT NOT NULL,
	pool_address TEXT NOT NULL,
	token0 TEXT NOT NULL,
	token1 TEXT NOT NULL,
	fee BIGINT NOT NULL,
	tick_spacing INTEGER NOT NULL,
	first_seen_block BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain_id, pool_address)
);

CREATE TABLE IF NOT EXISTS quotes (
	id BIGSERIAL PRIMARY KEY,
	chain_id BIGINT NOT NULL,
	kind TEXT NOT NULL,
	token_in TEXT NOT NULL,
	token_out TEXT NOT NULL,
	amount_in NUMERIC,
	amount_out NUMERIC,
	price_per_token NUMERIC,
	price_impact_percent NUMERIC,
	slippage_percent NUMERIC,
	bound_kind TEXT,
	bound_amount NUMERIC,
	path TEXT NOT NULL,
	gas_estimate NUMERIC,
	quoted_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS quotes_pair_idx ON quotes (chain_id, token_in, token_out, quoted_at);
`
