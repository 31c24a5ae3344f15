package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/amirhossein-jamali/qb-server-agent/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/core"
	usecaseport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/usecase"
)

// MockQBXMLUseCase is a testify mock of the engine's business operations
type MockQBXMLUseCase struct {
	mock.Mock
}

var _ usecaseport.QBXMLUseCase = (*MockQBXMLUseCase)(nil)

func (m *MockQBXMLUseCase) Submit(ctx context.Context, req usecaseport.SubmitRequest) (*usecaseport.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecaseport.Result), args.Error(1)
}

func (m *MockQBXMLUseCase) RetryByID(ctx context.Context, transactionID string) (*usecaseport.Result, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecaseport.Result), args.Error(1)
}

func (m *MockQBXMLUseCase) List(ctx context.Context, query usecaseport.ListQuery) (*usecaseport.ListResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecaseport.ListResult), args.Error(1)
}

func (m *MockQBXMLUseCase) GetByID(ctx context.Context, transactionID string) (*entity.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Transaction), args.Error(1)
}

// testLogger discards all output
type testLogger struct{}

func (testLogger) SetLevel(coreport.LogLevel)   {}
func (testLogger) Debug(string, map[string]any) {}
func (testLogger) Info(string, map[string]any)  {}
func (testLogger) Warn(string, map[string]any)  {}
func (testLogger) Error(string, map[string]any) {}
func (testLogger) Flush() error                 { return nil }
