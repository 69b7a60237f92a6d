package mocks

import (
	"context"
	"story-server/shared/interfaces"

	"github.com/stretchr/testify/mock"
)

// Mock TxManager. WithTx runs fn with a nil DBTX unless the expectation
// returns an error, so service logic inside transactions stays testable.
type TxManager struct {
	mock.Mock
}

func (m *TxManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx interfaces.DBTX) error) error {
	args := m.Called(ctx, fn)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx, nil)
}
