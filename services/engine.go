package services

import (
	"context"
	"time"

	"github.com/kendall-kelly/quotation-allocation-api/repository"
	"github.com/kendall-kelly/quotation-allocation-api/utils"
	"github.com/sirupsen/logrus"
)

// Clock returns the current time
type Clock func() time.Time

// base carries the collaborators every service needs
type base struct {
	repo    repository.Repository
	logger  *logrus.Logger
	audit   *AuditLog
	now     Clock
	timeout time.Duration
}

func (b base) operationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return utils.OperationContext(ctx, b.timeout)
}

// EngineOptions configures an Engine
type EngineOptions struct {
	Logger  *logrus.Logger
	Audit   *AuditLog
	Clock   Clock
	Timeout time.Duration
}

// Engine bundles the quotation, response, allocation, order and notification
// services that share one repository.
type Engine struct {
	*QuotationService
	*ResponseService
	*AllocationService
	*OrderService
	*NotificationService
}

// NewEngine wires the services together
func NewEngine(repo repository.Repository, opts EngineOptions) *Engine {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Timeout <= 0 {
		opts.Timeout = utils.DefaultOperationTimeout
	}

	b := base{
		repo:    repo,
		logger:  opts.Logger,
		audit:   opts.Audit,
		now:     opts.Clock,
		timeout: opts.Timeout,
	}

	notifications := &NotificationService{base: b}
	allocations := &AllocationService{base: b, notifier: notifications}

	return &Engine{
		QuotationService:    &QuotationService{base: b},
		ResponseService:     &ResponseService{base: b, allocator: allocations},
		AllocationService:   allocations,
		OrderService:        &OrderService{base: b, notifier: notifications},
		NotificationService: notifications,
	}
}
