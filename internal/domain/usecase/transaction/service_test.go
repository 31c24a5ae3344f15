package transaction

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/qb-server-agent/internal/domain/entity"
	errs "github.com/amirhossein-jamali/qb-server-agent/internal/domain/error"
	executorport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/executor"
	"github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/persistence"
	usecaseport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/usecase"
)

func newTestService(repo *MockTransactionRepository, executor *MockExecutor) *Service {
	tp := &fixedTimeProvider{
		now:     time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		elapsed: 100 * time.Millisecond,
	}
	return NewService(repo, executor, tp, testLogger{})
}

func TestService_SubmitEmptyDocument(t *testing.T) {
	service := newTestService(new(MockTransactionRepository), new(MockExecutor))

	result, err := service.Submit(context.Background(), usecaseport.SubmitRequest{})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, errs.ErrEmptyDocument)
}

func TestService_SubmitFreshDocumentExecutes(t *testing.T) {
	mockRepo := new(MockTransactionRepository)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Transaction")).Return(nil)
	mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*entity.Transaction")).Return(nil)

	mockExecutor := new(MockExecutor)
	mockExecutor.On("ExecuteDocument", mock.Anything, "<QBXML/>", "invoice-42").
		Return(&executorport.ExecuteResult{Success: true, QBXMLResponse: "<QBXMLResponse/>"}, nil)

	service := newTestService(mockRepo, mockExecutor)
	result, err := service.Submit(context.Background(), usecaseport.SubmitRequest{
		QBXML:      "<QBXML/>",
		Identifier: "invoice-42",
	})

	require.NoError(t, err)
	assert.False(t, result.Conflict)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.True(t, result.Envelope.Success)
	assert.Equal(t, entity.MessageCompleted, result.Envelope.Message)
	mockRepo.AssertExpectations(t)
	mockExecutor.AssertExpectations(t)
}

func TestService_SubmitDuplicateKeyReturnsStoredResult(t *testing.T) {
	existing := &entity.Transaction{
		TransactionID:    "tx-1",
		IdempotencyKey:   "key-1",
		Identifier:       "invoice-42",
		Status:           entity.StatusSuccess,
		QBXMLResponse:    "<QBXMLResponse/>",
		ProcessingTimeMS: 120,
	}

	mockRepo := new(MockTransactionRepository)
	mockRepo.On("GetByIdempotencyKey", mock.Anything, "key-1").Return(existing, nil)

	mockExecutor := new(MockExecutor)

	service := newTestService(mockRepo, mockExecutor)
	result, err := service.Submit(context.Background(), usecaseport.SubmitRequest{
		QBXML:          "<QBXML/>",
		IdempotencyKey: "key-1",
	})

	require.NoError(t, err)
	assert.True(t, result.Conflict)
	assert.Equal(t, http.StatusConflict, result.StatusCode)
	assert.True(t, result.Envelope.Success)
	assert.Equal(t, entity.MessageCompleted, result.Envelope.Message)
	assert.Equal(t, "tx-1", result.Envelope.TransactionID)
	mockExecutor.AssertNotCalled(t, "ExecuteDocument", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_SubmitInFlightDuplicateReportsInProgress(t *testing.T) {
	existing := &entity.Transaction{
		TransactionID:  "tx-1",
		IdempotencyKey: "key-1",
		Status:         entity.StatusPending,
	}

	mockRepo := new(MockTransactionRepository)
	mockRepo.On("GetByIdempotencyKey", mock.Anything, "key-1").Return(existing, nil)

	service := newTestService(mockRepo, new(MockExecutor))
	result, err := service.Submit(context.Background(), usecaseport.SubmitRequest{
		QBXML:          "<QBXML/>",
		IdempotencyKey: "key-1",
	})

	require.NoError(t, err)
	assert.True(t, result.Conflict)
	assert.False(t, result.Envelope.Success)
	assert.Equal(t, entity.MessageInProgress, result.Envelope.Message)
}

func TestService_SubmitShimDownMapsToServiceUnavailable(t *testing.T) {
	mockRepo := new(MockTransactionRepository)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Transaction")).Return(nil)
	mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*entity.Transaction")).Return(nil)

	mockExecutor := new(MockExecutor)
	mockExecutor.On("ExecuteDocument", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errs.ErrShimUnavailable)

	service := newTestService(mockRepo, mockExecutor)
	result, err := service.Submit(context.Background(), usecaseport.SubmitRequest{QBXML: "<QBXML/>"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, result.StatusCode)
	assert.Equal(t, errs.CodeShimUnavailable, result.Envelope.ErrorCode)
	assert.Equal(t, entity.RetryAfterSeconds, result.Envelope.RetryAfterSeconds)
}

func TestService_RetryByIDUnknownTransaction(t *testing.T) {
	mockRepo := new(MockTransactionRepository)
	mockRepo.On("GetByID", mock.Anything, "missing").Return(nil, errs.ErrTransactionNotFound)

	service := newTestService(mockRepo, new(MockExecutor))
	result, err := service.RetryByID(context.Background(), "missing")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, errs.ErrTransactionNotFound)
}

func TestService_RetryByIDSettledAnswersFromStore(t *testing.T) {
	for _, status := range []entity.TransactionStatus{entity.StatusSuccess, entity.StatusPending} {
		t.Run(string(status), func(t *testing.T) {
			stored := &entity.Transaction{TransactionID: "tx-1", Status: status}

			mockRepo := new(MockTransactionRepository)
			mockRepo.On("GetByID", mock.Anything, "tx-1").Return(stored, nil)

			mockExecutor := new(MockExecutor)

			service := newTestService(mockRepo, mockExecutor)
			result, err := service.RetryByID(context.Background(), "tx-1")

			require.NoError(t, err)
			assert.True(t, result.Conflict)
			assert.Equal(t, http.StatusConflict, result.StatusCode)
			mockExecutor.AssertNotCalled(t, "ExecuteDocument", mock.Anything, mock.Anything, mock.Anything)
			mockRepo.AssertNotCalled(t, "ClaimForRetry", mock.Anything, mock.Anything)
		})
	}
}

func TestService_RetryByIDClaimedExecutesAsRetry(t *testing.T) {
	failed := &entity.Transaction{
		TransactionID: "tx-1",
		Status:        entity.StatusError,
		QBXMLRequest:  "<QBXML/>",
		RetryCount:    1,
	}
	claimed := &entity.Transaction{
		TransactionID: "tx-1",
		Status:        entity.StatusPending,
		QBXMLRequest:  "<QBXML/>",
		RetryCount:    1,
	}

	mockRepo := new(MockTransactionRepository)
	mockRepo.On("GetByID", mock.Anything, "tx-1").Return(failed, nil).Once()
	mockRepo.On("ClaimForRetry", mock.Anything, "tx-1").Return(true, nil)
	mockRepo.On("GetByID", mock.Anything, "tx-1").Return(claimed, nil).Once()
	mockRepo.On("Update", mock.Anything, claimed).Return(nil)

	mockExecutor := new(MockExecutor)
	mockExecutor.On("ExecuteDocument", mock.Anything, "<QBXML/>", mock.Anything).
		Return(&executorport.ExecuteResult{Success: true, QBXMLResponse: "<QBXMLResponse/>"}, nil)

	service := newTestService(mockRepo, mockExecutor)
	result, err := service.RetryByID(context.Background(), "tx-1")

	require.NoError(t, err)
	assert.False(t, result.Conflict)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, entity.StatusSuccess, claimed.Status)
	assert.Equal(t, 1, claimed.RetryCount, "successful retry settles without another increment")
	mockRepo.AssertExpectations(t)
}

func TestService_RetryByIDClaimLostReportsConflict(t *testing.T) {
	failed := &entity.Transaction{TransactionID: "tx-1", Status: entity.StatusError}
	current := &entity.Transaction{TransactionID: "tx-1", Status: entity.StatusPending}

	mockRepo := new(MockTransactionRepository)
	mockRepo.On("GetByID", mock.Anything, "tx-1").Return(failed, nil).Once()
	mockRepo.On("ClaimForRetry", mock.Anything, "tx-1").Return(false, nil)
	mockRepo.On("GetByID", mock.Anything, "tx-1").Return(current, nil).Once()

	mockExecutor := new(MockExecutor)

	service := newTestService(mockRepo, mockExecutor)
	result, err := service.RetryByID(context.Background(), "tx-1")

	require.NoError(t, err)
	assert.True(t, result.Conflict)
	assert.Equal(t, entity.MessageInProgress, result.Envelope.Message)
	mockExecutor.AssertNotCalled(t, "ExecuteDocument", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_ListClampsAndPasses(t *testing.T) {
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mockRepo := new(MockTransactionRepository)
	mockRepo.On("List", mock.Anything, mock.MatchedBy(func(f persistence.ListFilter) bool {
		return f.Limit == MaxListLimit &&
			f.Offset == 0 &&
			len(f.Statuses) == 1 && f.Statuses[0] == entity.StatusError &&
			f.Since != nil && f.Since.Equal(since)
	})).Return([]*entity.Transaction{}, int64(0), nil)

	service := newTestService(mockRepo, new(MockExecutor))
	result, err := service.List(context.Background(), usecaseport.ListQuery{
		Statuses: []string{"error"},
		Since:    "2026-03-01T00:00:00Z",
		Limit:    5000,
		Offset:   -3,
	})

	require.NoError(t, err)
	assert.Equal(t, MaxListLimit, result.Limit)
	assert.Equal(t, 0, result.Offset)
	mockRepo.AssertExpectations(t)
}

func TestService_ListRejectsBadFilters(t *testing.T) {
	service := newTestService(new(MockTransactionRepository), new(MockExecutor))

	_, err := service.List(context.Background(), usecaseport.ListQuery{Statuses: []string{"bogus"}})
	assert.ErrorIs(t, err, errs.ErrInvalidStatusFilter)

	_, err = service.List(context.Background(), usecaseport.ListQuery{Since: "not-a-date"})
	assert.ErrorIs(t, err, errs.ErrInvalidSinceFilter)
}
