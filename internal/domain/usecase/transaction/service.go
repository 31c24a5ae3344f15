package transaction

import (
	"context"
	"fmt"
	"net/http"

	"github.com/amirhossein-jamali/qb-server-agent/internal/domain/entity"
	errs "github.com/amirhossein-jamali/qb-server-agent/internal/domain/error"
	coreport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/core"
	executorport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/executor"
	"github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/persistence"
	usecaseport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/usecase"
)

// Service is the main qbxml engine implementation tying together the resolver
// and the processor
type Service struct {
	resolver        *Resolver
	processor       *Processor
	transactionRepo persistence.TransactionRepository
	logger          coreport.Logger
}

// NewService creates a new qbxml transaction service
func NewService(
	transactionRepo persistence.TransactionRepository,
	executor executorport.Executor,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Service {
	return &Service{
		resolver:        NewResolver(transactionRepo, timeProvider, logger),
		processor:       NewProcessor(transactionRepo, executor, timeProvider, logger),
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

var _ usecaseport.QBXMLUseCase = (*Service)(nil)

// Processor exposes the execution engine for the retry scheduler
func (s *Service) Processor() *Processor {
	return s.processor
}

// Submit resolves the idempotency key and, when admitted, executes the document
func (s *Service) Submit(ctx context.Context, req usecaseport.SubmitRequest) (*usecaseport.Result, error) {
	if req.QBXML == "" {
		return nil, errs.ErrEmptyDocument
	}

	s.logger.Info("Submission received", map[string]any{
		"identifier":      req.Identifier,
		"idempotency_key": req.IdempotencyKey,
	})

	resolution, err := s.resolver.Resolve(ctx, req.IdempotencyKey, req.Identifier, req.QBXML)
	if err != nil {
		return nil, err
	}

	if !resolution.Proceed {
		return conflictResult(resolution.Transaction), nil
	}

	envelope := s.processor.Process(ctx, resolution.Transaction, resolution.IsRetry)
	return executedResult(envelope), nil
}

// RetryByID re-executes a failed transaction. Settled and in-flight records
// answer from the store without touching QuickBooks.
func (s *Service) RetryByID(ctx context.Context, transactionID string) (*usecaseport.Result, error) {
	tx, err := s.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if tx.Status.IsSettled() {
		return conflictResult(tx), nil
	}

	claimed, err := s.transactionRepo.ClaimForRetry(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim transaction for retry: %w", err)
	}

	current, err := s.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if !claimed {
		// A concurrent retry won the claim; report its in-flight state
		return conflictResult(current), nil
	}

	envelope := s.processor.Process(ctx, current, true)
	return executedResult(envelope), nil
}

// List returns a validated, paginated page of transactions
func (s *Service) List(ctx context.Context, query usecaseport.ListQuery) (*usecaseport.ListResult, error) {
	statuses, err := ValidateStatuses(query.Statuses)
	if err != nil {
		return nil, err
	}

	since, err := ParseSince(query.Since)
	if err != nil {
		return nil, err
	}

	limit := NormalizeLimit(query.Limit)
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	transactions, total, err := s.transactionRepo.List(ctx, persistence.ListFilter{
		Statuses: statuses,
		Since:    since,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, err
	}

	return &usecaseport.ListResult{
		Transactions: transactions,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	}, nil
}

// GetByID returns the full stored record for a transaction
func (s *Service) GetByID(ctx context.Context, transactionID string) (*entity.Transaction, error) {
	return s.transactionRepo.GetByID(ctx, transactionID)
}

// conflictResult answers from the stored record on the duplicate path
func conflictResult(tx *entity.Transaction) *usecaseport.Result {
	return &usecaseport.Result{
		Conflict:   true,
		StatusCode: http.StatusConflict,
		Envelope:   entity.DuplicateEnvelope(tx),
	}
}

// executedResult maps an execution envelope to its HTTP classification
func executedResult(envelope *entity.Envelope) *usecaseport.Result {
	return &usecaseport.Result{
		StatusCode: errs.HTTPStatus(envelope.ErrorCode),
		Envelope:   envelope,
	}
}
