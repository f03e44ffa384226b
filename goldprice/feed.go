package goldprice

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"debtbook/utils"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// FeedSource читает цену из XML-фида по HTTP
type FeedSource struct {
	client    *http.Client
	feedURL   string
	path      string
	sourceURL string
	attempts  int
	backoff   time.Duration
	now       func() time.Time
}

// FeedOptions параметры FeedSource
type FeedOptions struct {
	FeedURL   string
	PricePath string // путь etree к элементу с ценой
	SourceURL string
	Attempts  int
	Timeout   time.Duration
	Backoff   time.Duration
}

// NewFeedSource создает новый экземпляр FeedSource
func NewFeedSource(opts FeedOptions) *FeedSource {
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 500 * time.Millisecond
	}
	if opts.SourceURL == "" {
		opts.SourceURL = opts.FeedURL
	}
	return &FeedSource{
		client:    &http.Client{Timeout: opts.Timeout},
		feedURL:   opts.FeedURL,
		path:      opts.PricePath,
		sourceURL: opts.SourceURL,
		attempts:  opts.Attempts,
		backoff:   opts.Backoff,
		now:       time.Now,
	}
}

// Current запрашивает фид, повторяя попытку при ошибке
func (s *FeedSource) Current(ctx context.Context, _ bool) (Quote, error) {
	if s.feedURL == "" {
		return Quote{}, fmt.Errorf("%w: feed url is not configured", ErrPriceUnavailable)
	}

	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		price, err := s.fetch(ctx)
		if err == nil {
			return Quote{Price: price, SourceURL: s.sourceURL, FetchedAt: s.now()}, nil
		}
		lastErr = err
		utils.LogError("Попытка %d получения цены золота не удалась: %v", attempt, err)

		if attempt == s.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return Quote{}, ctx.Err()
		case <-time.After(s.backoff * time.Duration(attempt)):
		}
	}
	return Quote{}, fmt.Errorf("%w: %v", ErrPriceUnavailable, lastErr)
}

func (s *FeedSource) fetch(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.feedURL, nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("Accept", "application/xml, text/xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(resp.Body); err != nil {
		return decimal.Zero, fmt.Errorf("invalid feed: %w", err)
	}
	return ParsePrice(doc, s.path)
}

// ParsePrice извлекает цену из документа. Значение может содержать
// разделители тысяч и пробелы.
func ParsePrice(doc *etree.Document, path string) (decimal.Decimal, error) {
	p, err := etree.CompilePath(path)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price path %q: %w", path, err)
	}
	el := doc.FindElementPath(p)
	if el == nil {
		return decimal.Zero, fmt.Errorf("price element %q not found", path)
	}

	raw := strings.TrimSpace(el.Text())
	if raw == "" {
		if attr := el.SelectAttr("value"); attr != nil {
			raw = strings.TrimSpace(attr.Value)
		}
	}
	price, err := utils.ParseAmount(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q: %w", raw, err)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("invalid price %q", raw)
	}
	return price.Round(2), nil
}
