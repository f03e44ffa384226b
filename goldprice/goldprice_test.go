package goldprice

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"debtbook/utils"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<prices currency="EGP">
  <price karat="21">3,500.00</price>
  <price karat="24"> 4,000.50 </price>
</prices>`

func TestParsePrice(t *testing.T) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(feedXML); err != nil {
		t.Fatalf("read xml: %v", err)
	}

	price, err := ParsePrice(doc, "//price[@karat='24']")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("4000.5")) {
		t.Fatalf("expected 4000.5, got %s", price)
	}

	if _, err := ParsePrice(doc, "//price[@karat='18']"); err == nil {
		t.Fatalf("expected error for missing element")
	}
}

func TestFeedSourceRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	src := NewFeedSource(FeedOptions{
		FeedURL:   srv.URL,
		PricePath: "//price[@karat='24']",
		Attempts:  3,
		Backoff:   time.Millisecond,
	})

	q, err := src.Current(context.Background(), false)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if !q.Price.Equal(decimal.RequireFromString("4000.5")) || q.SourceURL != srv.URL || q.IsFromCache {
		t.Fatalf("unexpected quote: %+v", q)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestFeedSourceGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	src := NewFeedSource(FeedOptions{FeedURL: srv.URL, PricePath: "//price", Attempts: 2, Backoff: time.Millisecond})
	if _, err := src.Current(context.Background(), false); !errors.Is(err, ErrPriceUnavailable) {
		t.Fatalf("expected ErrPriceUnavailable, got %v", err)
	}
}

type stubSource struct {
	quote Quote
	err   error
	calls int
}

func (s *stubSource) Current(_ context.Context, _ bool) (Quote, error) {
	s.calls++
	return s.quote, s.err
}

func TestCachedSource(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	stub := &stubSource{quote: Quote{Price: decimal.NewFromInt(4000), SourceURL: "https://example.test", FetchedAt: now}}
	src := NewCachedSource(stub, NewMemoryCache(), 15*time.Minute).WithClock(func() time.Time { return now })
	ctx := context.Background()

	q, err := src.Current(ctx, false)
	if err != nil || q.IsFromCache || stub.calls != 1 {
		t.Fatalf("first call must hit the source: %+v, %v", q, err)
	}

	now = now.Add(5 * time.Minute)
	q, err = src.Current(ctx, false)
	if err != nil || !q.IsFromCache || stub.calls != 1 {
		t.Fatalf("fresh quote must come from cache: %+v, %v", q, err)
	}

	q, err = src.Current(ctx, true)
	if err != nil || q.IsFromCache || stub.calls != 2 {
		t.Fatalf("force must bypass cache: %+v, %v", q, err)
	}

	now = now.Add(time.Hour)
	stub.err = errors.New("feed down")
	q, err = src.Current(ctx, false)
	if err != nil {
		t.Fatalf("expected fallback to cached quote, got %v", err)
	}
	if !q.IsFromCache || !q.Price.Equal(decimal.NewFromInt(4000)) {
		t.Fatalf("unexpected fallback quote: %+v", q)
	}
}

func TestCachedSourceWithoutAnyQuote(t *testing.T) {
	stub := &stubSource{err: errors.New("feed down")}
	src := NewCachedSource(stub, nil, time.Minute)
	if _, err := src.Current(context.Background(), false); !errors.Is(err, ErrPriceUnavailable) {
		t.Fatalf("expected ErrPriceUnavailable, got %v", err)
	}
}

func TestCachedSourceLogsCacheHitAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	orig := utils.Logger()
	utils.SetLogger(zap.New(core))
	defer utils.SetLogger(orig)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	stub := &stubSource{quote: Quote{Price: decimal.NewFromInt(4000), FetchedAt: now}}
	src := NewCachedSource(stub, NewMemoryCache(), time.Minute).WithClock(func() time.Time { return now })

	if _, err := src.Current(context.Background(), false); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := src.Current(context.Background(), false); err != nil {
		t.Fatalf("second call: %v", err)
	}

	hits := logs.FilterLevelExact(zapcore.DebugLevel).All()
	if len(hits) != 1 {
		t.Fatalf("expected one debug entry for the cache hit, got %d", len(hits))
	}
}
