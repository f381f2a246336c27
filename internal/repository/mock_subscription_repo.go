package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/streamhub/notifier/internal/domain"
)

// MockRow is a stored subscription plus its lifecycle state.
type MockRow struct {
	Item   domain.SubscriptionItem
	Estado string
}

// MockSubscriptionRepository is a hand-written, in-memory implementation of
// SubscriptionRepository used in unit tests. It applies the same filters as
// the SQL queries.
type MockSubscriptionRepository struct {
	mu    sync.RWMutex
	rows  []MockRow
	calls int

	// Optional error override, set in tests to simulate failure paths.
	FindErr error
}

func NewMockSubscriptionRepository(rows ...MockRow) *MockSubscriptionRepository {
	return &MockSubscriptionRepository{rows: rows}
}

// Add stores another row.
func (m *MockSubscriptionRepository) Add(row MockRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, row)
}

// Calls reports how many queries were issued.
func (m *MockSubscriptionRepository) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

func (m *MockSubscriptionRepository) FindActiveByEmails(_ context.Context, emails []string, today time.Time) ([]domain.SubscriptionItem, error) {
	wanted := normalizeEmails(emails)
	if len(wanted) == 0 {
		return nil, nil
	}
	set := make(map[string]struct{}, len(wanted))
	for _, e := range wanted {
		set[e] = struct{}{}
	}

	return m.find(today, func(it domain.SubscriptionItem) bool {
		_, ok := set[domain.NormalizeEmail(it.Correo)]
		return ok
	})
}

func (m *MockSubscriptionRepository) FindExpiring(_ context.Context, today, until time.Time) ([]domain.SubscriptionItem, error) {
	last := DateOnly(until)
	return m.find(today, func(it domain.SubscriptionItem) bool {
		return it.FechaVencimiento[:min(len(it.FechaVencimiento), 10)] <= last
	})
}

func (m *MockSubscriptionRepository) find(today time.Time, match func(domain.SubscriptionItem) bool) ([]domain.SubscriptionItem, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.FindErr != nil {
		return nil, m.FindErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	day := DateOnly(today)
	var result []domain.SubscriptionItem
	for _, row := range m.rows {
		if strings.EqualFold(row.Estado, cancelledState) {
			continue
		}
		if row.Item.FechaVencimiento[:min(len(row.Item.FechaVencimiento), 10)] <= day {
			continue
		}
		if !match(row.Item) {
			continue
		}
		clone := row.Item
		clone.Correo = domain.NormalizeEmail(clone.Correo)
		result = append(result, clone)
	}
	return result, nil
}
