package transaction

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/amirhossein-jamali/qb-server-agent/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/core"
	executorport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/executor"
	"github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/persistence"
)

// MockTransactionRepository is a testify mock of persistence.TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

var _ persistence.TransactionRepository = (*MockTransactionRepository)(nil)

func (m *MockTransactionRepository) Create(ctx context.Context, tx *entity.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, transactionID string) (*entity.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByIdempotencyKey(ctx context.Context, idempotencyKey string) (*entity.Transaction, error) {
	args := m.Called(ctx, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) List(ctx context.Context, filter persistence.ListFilter) ([]*entity.Transaction, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*entity.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepository) Update(ctx context.Context, tx *entity.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) ClaimForRetry(ctx context.Context, transactionID string) (bool, error) {
	args := m.Called(ctx, transactionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockExecutor is a testify mock of the downstream executor
type MockExecutor struct {
	mock.Mock
}

var _ executorport.Executor = (*MockExecutor)(nil)

func (m *MockExecutor) ExecuteDocument(ctx context.Context, qbxml, identifier string) (*executorport.ExecuteResult, error) {
	args := m.Called(ctx, qbxml, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*executorport.ExecuteResult), args.Error(1)
}

func (m *MockExecutor) CheckHealth(ctx context.Context) (*executorport.Health, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*executorport.Health), args.Error(1)
}

// fixedTimeProvider returns a constant time so timestamps and elapsed
// durations are deterministic in tests
type fixedTimeProvider struct {
	now     time.Time
	elapsed time.Duration
}

func (p *fixedTimeProvider) Now() time.Time {
	return p.now
}

func (p *fixedTimeProvider) Since(time.Time) time.Duration {
	return p.elapsed
}

func (p *fixedTimeProvider) WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

var _ coreport.TimeProvider = (*fixedTimeProvider)(nil)

// testLogger discards all output
type testLogger struct{}

func (testLogger) SetLevel(coreport.LogLevel)   {}
func (testLogger) Debug(string, map[string]any) {}
func (testLogger) Info(string, map[string]any)  {}
func (testLogger) Warn(string, map[string]any)  {}
func (testLogger) Error(string, map[string]any) {}
func (testLogger) Flush() error                 { return nil }

var _ coreport.Logger = testLogger{}
