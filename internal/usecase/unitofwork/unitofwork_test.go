package unitofwork

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/parthbtw/WealthNest-Hackathon/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of domain.Store for testing
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Repositories() domain.Repositories {
	args := m.Called()
	return args.Get(0).(domain.Repositories)
}

func (m *MockStore) RunInTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

// MockPublisher is a mock implementation of domain.EventPublisher for testing
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishLedgerEvent(ctx context.Context, event domain.LedgerEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func noop(context.Context, domain.Repositories) error { return nil }

func TestRun_RetriesOnceOnConflict(t *testing.T) {
	store := new(MockStore)
	store.On("RunInTx", mock.Anything, mock.Anything).Return(&domain.ConflictError{}).Once()
	store.On("RunInTx", mock.Anything, mock.Anything).Return(nil).Once()

	err := Run(context.Background(), store, "deposit", noop)

	assert.NoError(t, err)
	store.AssertNumberOfCalls(t, "RunInTx", 2)
}

func TestRun_GivesUpAfterSecondConflict(t *testing.T) {
	store := new(MockStore)
	store.On("RunInTx", mock.Anything, mock.Anything).Return(&domain.ConflictError{})

	err := Run(context.Background(), store, "deposit", noop)

	assert.True(t, domain.IsConflict(err))
	store.AssertNumberOfCalls(t, "RunInTx", MaxAttempts)
}

func TestRun_DoesNotRetryOtherErrors(t *testing.T) {
	store := new(MockStore)
	store.On("RunInTx", mock.Anything, mock.Anything).Return(domain.ErrVaultNotFound)

	err := Run(context.Background(), store, "deposit", noop)

	assert.ErrorIs(t, err, domain.ErrVaultNotFound)
	store.AssertNumberOfCalls(t, "RunInTx", 1)
}

func TestPublish_LogsAndContinuesOnFailure(t *testing.T) {
	publisher := new(MockPublisher)
	first := domain.NewLedgerEvent(domain.LedgerEventDeposit, uuid.New(), uuid.New(), decimal.NewFromInt(1), time.Now())
	second := domain.NewLedgerEvent(domain.LedgerEventWithdrawal, uuid.New(), uuid.New(), decimal.NewFromInt(1), time.Now())
	publisher.On("PublishLedgerEvent", mock.Anything, first).Return(errors.New("broker down"))
	publisher.On("PublishLedgerEvent", mock.Anything, second).Return(nil)

	Publish(context.Background(), publisher, first, second)

	publisher.AssertExpectations(t)
}

func TestPublish_NilPublisher(t *testing.T) {
	assert.NotPanics(t, func() {
		Publish(context.Background(), nil, domain.LedgerEvent{})
	})
}
