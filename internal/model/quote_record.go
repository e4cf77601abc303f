package model

// QuoteRecord is the flattened journal form of a quotation and its bound.
type QuoteRecord struct {
	ChainID            uint64 `json:"chain_id"`
	Kind               string `json:"kind"`
	TokenIn            string `json:"token_in"`
	TokenOut           string `json:"token_out"`
	AmountIn           string `json:"amount_in"`
	AmountOut          string `json:"amount_out"`
	PricePerToken      string `json:"price_per_token"`
	PriceImpactPercent string `json:"price_impact_percent"`
	SlippagePercent    string `json:"slippage_percent"`
	BoundKind          string `json:"bound_kind"`
	BoundAmount        string `json:"bound_amount"`
	Path               string `json:"path"`
	GasEstimate        string `json:"gas_estimate"`
	QuotedAt           string `json:"quoted_at"`
}
