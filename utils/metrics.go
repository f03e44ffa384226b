package utils

import (
	"sync"
	"time"
)

// Операции над долгами, учитываемые в метриках
const (
	OpDebtCreated       = "debt_created"
	OpDebtDeleted       = "debt_deleted"
	OpPaymentApplied    = "payment_applied"
	OpAdjustmentApplied = "adjustment_applied"
	OpInstallmentToggle = "installment_toggle"
	OpDebtSettled       = "debt_settled"
)

// Metrics содержит метрики приложения
type Metrics struct {
	mu sync.RWMutex

	// Метрики запросов
	TotalRequests     int64
	FailedRequests    int64
	RequestLatency    time.Duration
	AverageLatency    time.Duration
	FirstRequestTime  time.Time
	LastRequestTime   time.Time
	RequestsPerMinute float64

	// Метрики долгов
	DebtsCreated        int64
	DebtsDeleted        int64
	DebtsSettled        int64
	PaymentsApplied     int64
	AdjustmentsApplied  int64
	InstallmentToggles  int64
	LastLedgerOperation time.Time

	// Метрики ошибок
	ErrorCount     int64
	LastErrorTime  time.Time
	ErrorTypes     map[string]int64
	CriticalErrors int64

	now func() time.Time
}

var (
	metrics     *Metrics
	metricsOnce sync.Once
)

// NewMetrics создает независимый набор метрик
func NewMetrics() *Metrics {
	return &Metrics{
		ErrorTypes: make(map[string]int64),
		now:        time.Now,
	}
}

// GetMetrics возвращает экземпляр метрик
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = NewMetrics()
	})
	return metrics
}

// RecordRequest записывает метрики запроса
func (m *Metrics) RecordRequest(duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if m.TotalRequests == 0 {
		m.FirstRequestTime = now
	}
	m.TotalRequests++
	m.RequestLatency += duration
	m.AverageLatency = m.RequestLatency / time.Duration(m.TotalRequests)
	m.LastRequestTime = now

	if err != nil {
		m.FailedRequests++
		m.recordErrorLocked(err)
	}

	// Обновляем количество запросов в минуту
	if elapsed := now.Sub(m.FirstRequestTime); elapsed >= time.Minute {
		m.RequestsPerMinute = float64(m.TotalRequests) / elapsed.Minutes()
	}
}

// RecordLedgerOperation записывает метрики операции над долгом
func (m *Metrics) RecordLedgerOperation(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.recordErrorLocked(err)
		return
	}

	m.LastLedgerOperation = m.now()

	switch operation {
	case OpDebtCreated:
		m.DebtsCreated++
	case OpDebtDeleted:
		m.DebtsDeleted++
	case OpDebtSettled:
		m.DebtsSettled++
	case OpPaymentApplied:
		m.PaymentsApplied++
	case OpAdjustmentApplied:
		m.AdjustmentsApplied++
	case OpInstallmentToggle:
		m.InstallmentToggles++
	}
}

// RecordError записывает метрики ошибки
func (m *Metrics) RecordError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordErrorLocked(err)
}

// RecordCriticalError записывает метрики критической ошибки
func (m *Metrics) RecordCriticalError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CriticalErrors++
	m.recordErrorLocked(err)
}

// recordErrorLocked вызывается под m.mu
func (m *Metrics) recordErrorLocked(err error) {
	m.ErrorCount++
	m.LastErrorTime = m.now()

	errorType := "unknown"
	if err != nil {
		errorType = err.Error()
	}

	m.ErrorTypes[errorType]++
}

// GetMetricsSnapshot возвращает снимок текущих метрик
func (m *Metrics) GetMetricsSnapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	errorTypes := make(map[string]int64, len(m.ErrorTypes))
	for k, v := range m.ErrorTypes {
		errorTypes[k] = v
	}

	return map[string]interface{}{
		"total_requests":      m.TotalRequests,
		"failed_requests":     m.FailedRequests,
		"average_latency":     m.AverageLatency.String(),
		"requests_per_minute": m.RequestsPerMinute,
		"debts_created":       m.DebtsCreated,
		"debts_deleted":       m.DebtsDeleted,
		"debts_settled":       m.DebtsSettled,
		"payments_applied":    m.PaymentsApplied,
		"adjustments_applied": m.AdjustmentsApplied,
		"installment_toggles": m.InstallmentToggles,
		"error_count":         m.ErrorCount,
		"critical_errors":     m.CriticalErrors,
		"last_error_time":     m.LastErrorTime,
		"error_types":         errorTypes,
	}
}

// ResetMetrics сбрасывает все метрики
func (m *Metrics) ResetMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests = 0
	m.FailedRequests = 0
	m.RequestLatency = 0
	m.AverageLatency = 0
	m.RequestsPerMinute = 0
	m.FirstRequestTime = time.Time{}
	m.DebtsCreated = 0
	m.DebtsDeleted = 0
	m.DebtsSettled = 0
	m.PaymentsApplied = 0
	m.AdjustmentsApplied = 0
	m.InstallmentToggles = 0
	m.ErrorCount = 0
	m.CriticalErrors = 0
	m.ErrorTypes = make(map[string]int64)
}
