package transaction

import "context"

// MockTransactionManager is a no-op transaction manager for tests that use
// repositories without transactional isolation
type MockTransactionManager struct {
	// FailCommit forces InTransaction to report an error after fn succeeds
	FailCommit error
}

// NewMockTransactionManager creates a mock transaction manager
func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

// InTransaction executes fn directly against the given context
func (m *MockTransactionManager) InTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	return m.FailCommit
}
