package health

import (
	"context"
	"time"

	coreport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/core"
	executorport "github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/executor"
	"github.com/amirhossein-jamali/qb-server-agent/internal/domain/port/persistence"
)

// AgentStatus describes the agent process and its store connectivity
type AgentStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// ShimStatus describes reachability of the qb-shim sidecar
type ShimStatus struct {
	URL    string `json:"url"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// QuickBooksStatus describes the QuickBooks session behind the shim
type QuickBooksStatus struct {
	Status          string `json:"status"`
	CompanyFile     string `json:"company_file,omitempty"`
	CompanyFileOpen bool   `json:"company_file_open,omitempty"`
	Error           string `json:"error,omitempty"`
}

// Report aggregates store, shim and QuickBooks health in one probe
type Report struct {
	Status            string           `json:"status"`
	Timestamp         string           `json:"timestamp"`
	ServerAgent       AgentStatus      `json:"server_agent"`
	QBShim            ShimStatus       `json:"qb_shim"`
	QuickBooks        QuickBooksStatus `json:"quickbooks"`
	TransactionsToday *int64           `json:"transactions_today"`
	LastTransaction   *string          `json:"last_transaction"`
}

// Checker builds health reports. Overall status follows store reachability
// only; a down shim degrades the report without failing the probe.
type Checker struct {
	transactionRepo persistence.TransactionRepository
	executor        executorport.Executor
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	shimURL         string
}

// NewChecker creates a new health Checker
func NewChecker(
	transactionRepo persistence.TransactionRepository,
	executor executorport.Executor,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	shimURL string,
) *Checker {
	return &Checker{
		transactionRepo: transactionRepo,
		executor:        executor,
		timeProvider:    timeProvider,
		logger:          logger,
		shimURL:         shimURL,
	}
}

// Check probes the store and the shim and aggregates the results
func (c *Checker) Check(ctx context.Context) *Report {
	now := c.timeProvider.Now()
	report := &Report{
		Status:      "healthy",
		Timestamp:   now.Format(time.RFC3339),
		ServerAgent: AgentStatus{Status: "running", Database: "connected"},
		QBShim:      ShimStatus{URL: c.shimURL},
		QuickBooks:  QuickBooksStatus{Status: "unknown"},
	}

	c.checkStore(ctx, now, report)
	c.checkShim(ctx, report)
	return report
}

// checkStore verifies store reachability by counting today's transactions
func (c *Checker) checkStore(ctx context.Context, now time.Time, report *Report) {
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	transactions, total, err := c.transactionRepo.List(ctx, persistence.ListFilter{
		Since: &todayStart,
		Limit: 1,
	})
	if err != nil {
		c.logger.Error("Health check could not reach the transaction store", map[string]any{
			"error": err.Error(),
		})
		report.Status = "unhealthy"
		report.ServerAgent.Database = "not connected"
		return
	}

	report.TransactionsToday = &total
	if len(transactions) > 0 {
		last := transactions[0].UpdatedAt.Format(time.RFC3339)
		report.LastTransaction = &last
	}
}

// checkShim probes the shim and passes its QuickBooks session view through
func (c *Checker) checkShim(ctx context.Context, report *Report) {
	shimHealth, err := c.executor.CheckHealth(ctx)
	if err != nil {
		report.QBShim.Status = "unreachable"
		report.QBShim.Error = err.Error()
		return
	}

	report.QBShim.Status = "reachable"
	if shimHealth.QuickBooksConnected {
		report.QuickBooks = QuickBooksStatus{
			Status:          "connected",
			CompanyFile:     shimHealth.CompanyFile,
			CompanyFileOpen: shimHealth.CompanyFileOpen,
			Error:           shimHealth.Error,
		}
	} else {
		report.QuickBooks = QuickBooksStatus{Status: "not connected"}
	}
}
