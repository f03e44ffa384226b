package utils

import (
	"errors"
	"testing"
	"time"

	"debtbook/models"

	"github.com/shopspring/decimal"
)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		debtType models.DebtType
		value    string
		want     string
	}{
		{models.DebtTypeCash, "1200", "1,200.00 EGP"},
		{models.DebtTypeCash, "99.5", "99.50 EGP"},
		{models.DebtTypeGold, "6", "6.000 g (24K)"},
		{models.DebtTypeGold, "0.5", "0.500 g (24K)"},
	}
	for _, tc := range cases {
		got := FormatAmount(tc.debtType, decimal.RequireFromString(tc.value))
		if got != tc.want {
			t.Errorf("FormatAmount(%s, %s) = %q, want %q", tc.debtType, tc.value, got, tc.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	got, err := ParseAmount(" 1,250.75 ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("1250.75")) {
		t.Fatalf("expected 1250.75, got %s", got)
	}
	if _, err := ParseAmount("abc"); err == nil {
		t.Fatalf("expected error for non-numeric input")
	}
}

func TestHMACRoundTrip(t *testing.T) {
	key := []byte("secret")
	mac := GenerateHMAC([]byte("payload"), key)
	if !ValidateHMAC([]byte("payload"), mac, key) {
		t.Fatalf("expected valid mac")
	}
	if ValidateHMAC([]byte("payload2"), mac, key) {
		t.Fatalf("expected mismatch for different payload")
	}
	if ValidateHMAC([]byte("payload"), mac, []byte("other")) {
		t.Fatalf("expected mismatch for different key")
	}
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute).WithClock(func() time.Time { return now })

	if !rl.Allow("ip") || !rl.Allow("ip") {
		t.Fatalf("first two requests must pass")
	}
	if rl.Allow("ip") {
		t.Fatalf("third request must be limited")
	}
	if rl.GetRemaining("ip") != 0 {
		t.Fatalf("expected no remaining requests, got %d", rl.GetRemaining("ip"))
	}
	if !rl.Allow("other") {
		t.Fatalf("limits are per key")
	}

	now = now.Add(61 * time.Second)
	if !rl.Allow("ip") {
		t.Fatalf("request after the window must pass")
	}
	if rl.GetRemaining("ip") != 1 {
		t.Fatalf("expected 1 remaining, got %d", rl.GetRemaining("ip"))
	}
}

func TestMetricsRecordRequestWithError(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest(10*time.Millisecond, nil)
	m.RecordRequest(30*time.Millisecond, errors.New("bad request"))

	snapshot := m.GetMetricsSnapshot()
	if snapshot["total_requests"].(int64) != 2 || snapshot["failed_requests"].(int64) != 1 {
		t.Fatalf("unexpected request counters: %+v", snapshot)
	}
	if m.AverageLatency != 20*time.Millisecond {
		t.Fatalf("expected average 20ms, got %v", m.AverageLatency)
	}
	if snapshot["error_types"].(map[string]int64)["bad request"] != 1 {
		t.Fatalf("expected error type to be counted")
	}
}

func TestMetricsLedgerOperations(t *testing.T) {
	m := NewMetrics()
	m.RecordLedgerOperation(OpDebtCreated, nil)
	m.RecordLedgerOperation(OpPaymentApplied, nil)
	m.RecordLedgerOperation(OpPaymentApplied, nil)
	m.RecordLedgerOperation(OpAdjustmentApplied, errors.New("invalid"))

	if m.DebtsCreated != 1 || m.PaymentsApplied != 2 || m.AdjustmentsApplied != 0 {
		t.Fatalf("unexpected counters: created=%d payments=%d adjustments=%d", m.DebtsCreated, m.PaymentsApplied, m.AdjustmentsApplied)
	}
	if m.ErrorCount != 1 {
		t.Fatalf("expected 1 error, got %d", m.ErrorCount)
	}

	m.ResetMetrics()
	if m.PaymentsApplied != 0 || m.ErrorCount != 0 {
		t.Fatalf("expected metrics to be reset")
	}
}
