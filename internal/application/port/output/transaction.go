package output

import "context"

// TransactionManager coordinates database transactions across repositories
type TransactionManager interface {
	// InTransaction executes fn within a transaction. The transaction is
	// committed when fn returns nil and rolled back otherwise. Repositories
	// pick the transaction up from the context.
	InTransaction(ctx context.Context, fn func(txCtx context.Context) error) error
}
