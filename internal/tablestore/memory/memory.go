package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/smallbiznis/partdesk/internal/tablestore/domain"
)

// Gateway is an in-memory table store. It backs local development runs
// without spreadsheet credentials and doubles as the test gateway.
type Gateway struct {
	mu     sync.RWMutex
	tables map[string][]domain.Row
	nextID int64

	failNext error
}

func New() *Gateway {
	return &Gateway{
		tables: make(map[string][]domain.Row),
		nextID: 2,
	}
}

// Seed replaces the contents of a table, assigning sequential row IDs.
func (g *Gateway) Seed(table string, rows []map[string]string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	stored := make([]domain.Row, 0, len(rows))
	for _, cells := range rows {
		stored = append(stored, domain.Row{ID: g.nextID, Cells: copyCells(cells)})
		g.nextID++
	}
	g.tables[table] = stored
}

// FailNext makes the next call return err once. Used to exercise
// degraded paths in tests.
func (g *Gateway) FailNext(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failNext = err
}

func (g *Gateway) GetRows(_ context.Context, table string) ([]domain.Row, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.takeFailure(); err != nil {
		return nil, err
	}

	rows, ok := g.tables[table]
	if !ok {
		return nil, nil
	}
	out := make([]domain.Row, len(rows))
	for i, row := range rows {
		out[i] = domain.Row{ID: row.ID, Cells: copyCells(row.Cells)}
	}
	return out, nil
}

func (g *Gateway) AddRow(_ context.Context, table string, cells map[string]string) (domain.Row, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.takeFailure(); err != nil {
		return domain.Row{}, err
	}

	row := domain.Row{ID: g.nextID, Cells: copyCells(cells)}
	g.nextID++
	g.tables[table] = append(g.tables[table], row)
	return row, nil
}

func (g *Gateway) UpdateRow(_ context.Context, table string, rowID int64, cells map[string]string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.takeFailure(); err != nil {
		return err
	}

	rows, ok := g.tables[table]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrTableNotFound, table)
	}
	for i := range rows {
		if rows[i].ID == rowID {
			for title, value := range cells {
				rows[i].Cells[title] = value
			}
			return nil
		}
	}
	return domain.ErrRowNotFound
}

func (g *Gateway) takeFailure() error {
	if g.failNext == nil {
		return nil
	}
	err := g.failNext
	g.failNext = nil
	return err
}

func copyCells(cells map[string]string) map[string]string {
	out := make(map[string]string, len(cells))
	for k, v := range cells {
		out[k] = v
	}
	return out
}
