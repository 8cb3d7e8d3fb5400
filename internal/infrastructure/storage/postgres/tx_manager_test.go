package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTxManager_NestedCallsReuseOuterTransaction(t *testing.T) {
	m := &TxManager{}
	outer := &Tx{}
	ctx := context.WithValue(context.Background(), txKey{}, outer)

	var seen *Tx
	err := m.RunInTransaction(ctx, func(ctx context.Context) error {
		seen = m.GetTx(ctx)
		return nil
	})
	assert.NoError(t, err)
	assert.Same(t, outer, seen)

	boom := errors.New("boom")
	err = m.ReadOnly(ctx, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestTxManager_GetTxOutsideTransaction(t *testing.T) {
	m := &TxManager{}
	assert.Nil(t, m.GetTx(context.Background()))
}
