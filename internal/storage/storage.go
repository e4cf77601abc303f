package storage

import (
	"context"

	"quoteScope/internal/model"
)

// Journal is a sink for quote records.
type Journal interface {
	PutQuoteBatch(ctx context.Context, records []model.QuoteRecord) error
}
