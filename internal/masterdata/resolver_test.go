package masterdata

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = r.vals[i].(int64)
		case *bool:
			*p = r.vals[i].(bool)
		}
	}
	return nil
}

// fakeQuerier replays scripted rows in order, recording every statement.
type fakeQuerier struct {
	rows    []fakeRow
	queries []string
	execs   []string
}

func (q *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.execs = append(q.execs, sql)
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (q *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected Query call")
}

func (q *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.queries = append(q.queries, sql)
	row := q.rows[0]
	q.rows = q.rows[1:]
	return row
}

func TestResolveColorInsertsNewRow(t *testing.T) {
	q := &fakeQuerier{rows: []fakeRow{
		{err: pgx.ErrNoRows},
		{vals: []any{int64(5)}},
	}}

	id, err := NewResolver().ResolveOrCreateColor(context.Background(), q, "Teal", true)
	require.NoError(t, err)
	require.Equal(t, int64(5), id)
}

func TestResolveColorReturnsWinnerAfterLostInsertRace(t *testing.T) {
	q := &fakeQuerier{rows: []fakeRow{
		{err: pgx.ErrNoRows},          // initial lookup sees no row
		{err: pgx.ErrNoRows},          // insert conflicts, ON CONFLICT yields no row
		{vals: []any{int64(7), true}}, // re-lookup finds the winner
	}}

	id, err := NewResolver().ResolveOrCreateColor(context.Background(), q, "Maroon", true)
	require.NoError(t, err)
	require.Equal(t, int64(7), id)

	// The insert must absorb the duplicate instead of raising 23505, which
	// would abort the enclosing transaction before the re-lookup.
	require.Len(t, q.queries, 3)
	require.Contains(t, q.queries[1], "ON CONFLICT DO NOTHING")
}

func TestResolveColorReactivatesInactiveRow(t *testing.T) {
	q := &fakeQuerier{rows: []fakeRow{
		{vals: []any{int64(3), false}},
	}}

	id, err := NewResolver().ResolveOrCreateColor(context.Background(), q, "Mint", true)
	require.NoError(t, err)
	require.Equal(t, int64(3), id)
	require.Len(t, q.execs, 1)
	require.Contains(t, q.execs[0], "is_active = TRUE")
}

func TestResolveColorRequiresName(t *testing.T) {
	_, err := NewResolver().ResolveOrCreateColor(context.Background(), &fakeQuerier{}, "  ", true)
	require.Error(t, err)
}

func TestResolveMaterialReturnsWinnerAfterLostInsertRace(t *testing.T) {
	q := &fakeQuerier{rows: []fakeRow{
		{err: pgx.ErrNoRows},
		{err: pgx.ErrNoRows},
		{vals: []any{int64(11), true}},
	}}

	id, err := NewResolver().ResolveOrCreateMaterial(context.Background(), q, "LLDPE", nil)
	require.NoError(t, err)
	require.Equal(t, int64(11), id)
	require.Contains(t, q.queries[1], "ON CONFLICT DO NOTHING")
}

func TestResolveMaterialPropagatesInsertError(t *testing.T) {
	boom := errors.New("connection lost")
	q := &fakeQuerier{rows: []fakeRow{
		{err: pgx.ErrNoRows},
		{err: boom},
	}}

	_, err := NewResolver().ResolveOrCreateMaterial(context.Background(), q, "LLDPE", nil)
	require.ErrorIs(t, err, boom)
}

func TestFoldName(t *testing.T) {
	require.Equal(t, FoldName("  Slate Grey "), FoldName("slate grey"))
	require.NotEqual(t, FoldName("Slate Grey"), FoldName("Slate Green"))
}
