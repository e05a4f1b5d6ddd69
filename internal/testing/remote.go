package testing

import (
	"context"
	"sort"
	"sync"

	"github.com/aristath/tradebook/internal/domain"
)

// MemoryRemote is an in-memory domain.RemoteStore.
// Rows are copied on the way in and out so callers cannot alias stored state.
type MemoryRemote struct {
	mu     sync.Mutex
	tables map[string][]domain.Row
	nextID int64
	errs   map[string]error
	calls  []string
}

// NewMemoryRemote creates an empty remote
func NewMemoryRemote() *MemoryRemote {
	return &MemoryRemote{
		tables: make(map[string][]domain.Row),
		errs:   make(map[string]error),
	}
}

// FailOn makes every call of the named operation ("select", "insert", "update",
// "delete", "upsert") return err. A nil err clears the failure.
func (m *MemoryRemote) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, op)
		return
	}
	m.errs[op] = err
}

// Seed stores rows directly without recording a call
func (m *MemoryRemote) Seed(table string, rows ...domain.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range rows {
		m.tables[table] = append(m.tables[table], m.withID(row))
	}
}

// Rows returns a copy of the table contents
func (m *MemoryRemote) Rows(table string) []domain.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyRows(m.tables[table])
}

// Calls returns the recorded operations as "op table" strings
func (m *MemoryRemote) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MemoryRemote) begin(op, table string) error {
	m.calls = append(m.calls, op+" "+table)
	return m.errs[op]
}

// Select returns rows matching the filter
func (m *MemoryRemote) Select(ctx context.Context, table string, filter domain.Filter) ([]domain.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("select", table); err != nil {
		return nil, err
	}

	var out []domain.Row
	for _, row := range m.tables[table] {
		if row.Matches(filter) {
			out = append(out, copyRow(row))
		}
	}
	return out, nil
}

// Insert appends rows
func (m *MemoryRemote) Insert(ctx context.Context, table string, rows []domain.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("insert", table); err != nil {
		return err
	}
	for _, row := range rows {
		m.tables[table] = append(m.tables[table], m.withID(row))
	}
	return nil
}

// Update sets values on every row matching the filter
func (m *MemoryRemote) Update(ctx context.Context, table string, filter domain.Filter, values domain.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("update", table); err != nil {
		return err
	}
	for _, row := range m.tables[table] {
		if row.Matches(filter) {
			for k, v := range values {
				row[k] = v
			}
		}
	}
	return nil
}

// Delete removes every row matching the filter
func (m *MemoryRemote) Delete(ctx context.Context, table string, filter domain.Filter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("delete", table); err != nil {
		return err
	}
	kept := m.tables[table][:0]
	for _, row := range m.tables[table] {
		if !row.Matches(filter) {
			kept = append(kept, row)
		}
	}
	m.tables[table] = kept
	return nil
}

// Upsert replaces rows that share the conflict columns and inserts the rest
func (m *MemoryRemote) Upsert(ctx context.Context, table string, rows []domain.Row, conflictColumns []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("upsert", table); err != nil {
		return err
	}
	for _, row := range rows {
		key := domain.Filter{}
		for _, col := range conflictColumns {
			key[col] = row[col]
		}
		replaced := false
		for i, existing := range m.tables[table] {
			if existing.Matches(key) {
				merged := copyRow(existing)
				for k, v := range row {
					merged[k] = v
				}
				m.tables[table][i] = merged
				replaced = true
				break
			}
		}
		if !replaced {
			m.tables[table] = append(m.tables[table], m.withID(row))
		}
	}
	return nil
}

func (m *MemoryRemote) withID(row domain.Row) domain.Row {
	out := copyRow(row)
	if _, ok := out["id"]; !ok {
		m.nextID++
		out["id"] = m.nextID
	}
	return out
}

func copyRow(row domain.Row) domain.Row {
	out := make(domain.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

func copyRows(rows []domain.Row) []domain.Row {
	out := make([]domain.Row, 0, len(rows))
	for _, row := range rows {
		out = append(out, copyRow(row))
	}
	return out
}

// Tables lists the table names holding at least one row, sorted
func (m *MemoryRemote) Tables() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for name, rows := range m.tables {
		if len(rows) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
