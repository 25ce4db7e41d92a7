package repository

import "context"

// TxManager runs a unit of work atomically. Repositories called with the
// context passed to fn join the same store transaction; if fn returns an
// error every write inside it is rolled back.
//
// Every stock-mutating sequence (receive, sale, void, return settlement)
// must run inside exactly one Do call.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
