// Package dbtest provides a transaction runner for service tests that run
// against in-memory repositories.
package dbtest

import (
	"context"
	"sync"
)

// Snapshotter is implemented by in-memory repositories that can roll back.
// Snapshot captures the current state and returns a func that restores it.
type Snapshotter interface {
	Snapshot() (restore func())
}

type inTxKey struct{}

// SerialTx runs transactions one at a time, which gives in-memory
// repositories the isolation a row lock gives the real store. When fn fails
// every participant is restored to its state before the transaction.
type SerialTx struct {
	mu           sync.Mutex
	participants []Snapshotter

	Commits   int
	Rollbacks int
}

func NewSerialTx(participants ...Snapshotter) *SerialTx {
	return &SerialTx{participants: participants}
}

func (r *SerialTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(inTxKey{}) != nil {
		return fn(ctx)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	restores := make([]func(), 0, len(r.participants))
	for _, p := range r.participants {
		restores = append(restores, p.Snapshot())
	}

	if err := fn(context.WithValue(ctx, inTxKey{}, true)); err != nil {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
		r.Rollbacks++
		return err
	}
	r.Commits++
	return nil
}

// InTx reports whether ctx was handed out by WithTx. Repositories use it to
// assert that locking reads only happen inside a transaction.
func InTx(ctx context.Context) bool {
	return ctx.Value(inTxKey{}) != nil
}
