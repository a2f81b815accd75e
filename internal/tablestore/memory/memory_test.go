package memory

import (
	"context"
	"testing"

	"github.com/smallbiznis/partdesk/internal/tablestore/domain"
	"github.com/stretchr/testify/assert"
)

func TestGateway_RoundTrip(t *testing.T) {
	g := New()
	ctx := context.Background()

	g.Seed("t", []map[string]string{
		{"Code": "A"},
		{"Code": "B"},
	})

	rows, err := g.GetRows(ctx, "t")
	assert.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].Cell("Code"))

	added, err := g.AddRow(ctx, "t", map[string]string{"Code": "C"})
	assert.NoError(t, err)
	assert.Equal(t, "C", added.Cell("Code"))

	assert.NoError(t, g.UpdateRow(ctx, "t", added.ID, map[string]string{"Code": "C2"}))
	rows, err = g.GetRows(ctx, "t")
	assert.NoError(t, err)
	assert.Equal(t, "C2", rows[2].Cell("Code"))
}

func TestCellTrimsValue(t *testing.T) {
	g := New()
	ctx := context.Background()
	g.Seed("t", []map[string]string{{"Code": "  A-1\t", "Description": " padded "}})

	rows, err := g.GetRows(ctx, "t")
	assert.NoError(t, err)
	assert.Equal(t, "A-1", rows[0].Cell("Code"))
	assert.Equal(t, "padded", rows[0].Cell("Description"))
	assert.Equal(t, "", rows[0].Cell("Missing"))
}

func TestGateway_FailNextIsOneShot(t *testing.T) {
	g := New()
	ctx := context.Background()
	g.Seed("t", []map[string]string{{"Code": "A"}})

	g.FailNext(domain.ErrRemoteUnavailable)
	_, err := g.GetRows(ctx, "t")
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)

	rows, err := g.GetRows(ctx, "t")
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestGateway_UpdateMissing(t *testing.T) {
	g := New()
	ctx := context.Background()

	err := g.UpdateRow(ctx, "missing", 1, map[string]string{"Code": "X"})
	assert.ErrorIs(t, err, domain.ErrTableNotFound)

	g.Seed("t", []map[string]string{{"Code": "A"}})
	err = g.UpdateRow(ctx, "t", 99, map[string]string{"Code": "X"})
	assert.ErrorIs(t, err, domain.ErrRowNotFound)
}

func TestRowsAreCopies(t *testing.T) {
	g := New()
	ctx := context.Background()
	g.Seed("t", []map[string]string{{"Code": "A"}})

	rows, err := g.GetRows(ctx, "t")
	assert.NoError(t, err)
	rows[0].Cells["Code"] = "mutated"

	fresh, err := g.GetRows(ctx, "t")
	assert.NoError(t, err)
	assert.Equal(t, "A", fresh[0].Cell("Code"))
}
