// Package goldprice получает текущую цену грамма золота 24 карата
package goldprice

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrPriceUnavailable возвращается, когда цену не удалось получить и в кеше ничего нет
var ErrPriceUnavailable = errors.New("gold price unavailable")

// Quote котировка цены грамма золота в валюте учета
type Quote struct {
	Price       decimal.Decimal `json:"price"`
	SourceURL   string          `json:"source_url"`
	FetchedAt   time.Time       `json:"fetched_at"`
	IsFromCache bool            `json:"is_from_cache"`
}

// Source источник цены. force просит пропустить свежий кеш.
type Source interface {
	Current(ctx context.Context, force bool) (Quote, error)
}
