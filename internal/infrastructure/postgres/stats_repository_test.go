package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// emptyRows filas vacías; el resto de pgx.Rows no se usa.
type emptyRows struct{ pgx.Rows }

func (emptyRows) Next() bool { return false }
func (emptyRows) Close() {}
func (emptyRows) Err() error { return nil }

// snapshotTx cuenta las consultas hechas dentro de la transacción.
type snapshotTx struct {
	pgx.Tx
	queries    int
	failAt     int
	committed  bool
	rolledBack bool
}

func (t *snapshotTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	t.queries++
	if t.failAt > 0 && t.queries == t.failAt {
		return nil, errors.New("conexión perdida")
	}
	return emptyRows{}, nil
}

func (t *snapshotTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *snapshotTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

// snapshotPool registra las opciones con que se abrió la transacción. Fuera de ella no
// acepta consultas.
type snapshotPool struct {
	tx   *snapshotTx
	opts []pgx.TxOptions
}

func (p *snapshotPool) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	p.opts = append(p.opts, opts)
	return p.tx, nil
}

func (p *snapshotPool) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("consulta fuera de la transacción")
}

func (p *snapshotPool) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("consulta fuera de la transacción")
}

func (p *snapshotPool) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func TestAggregateMovements_UnaInstantaneaDeSoloLectura(t *testing.T) {
	pool := &snapshotPool{tx: &snapshotTx{}}
	repo := NewStatsRepository(pool)

	out, err := repo.AggregateMovements(context.Background(), repository.StatsFilter{ProductID: "p-1"})
	require.NoError(t, err)
	assert.Zero(t, out.TotalMovements)
	assert.Empty(t, out.ByType)

	require.Len(t, pool.opts, 1)
	assert.Equal(t, pgx.RepeatableRead, pool.opts[0].IsoLevel)
	assert.Equal(t, pgx.ReadOnly, pool.opts[0].AccessMode)
	assert.Equal(t, 4, pool.tx.queries)
	assert.True(t, pool.tx.committed)
	assert.False(t, pool.tx.rolledBack)
}

func TestAggregateMovements_ErrorRevierteLaTransaccion(t *testing.T) {
	pool := &snapshotPool{tx: &snapshotTx{failAt: 3}}
	repo := NewStatsRepository(pool)

	_, err := repo.AggregateMovements(context.Background(), repository.StatsFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stats by product")
	assert.Equal(t, 3, pool.tx.queries)
	assert.False(t, pool.tx.committed)
	assert.True(t, pool.tx.rolledBack)
}
