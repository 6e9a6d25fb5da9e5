package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kendall-kelly/quotation-allocation-api/models"
	"github.com/kendall-kelly/quotation-allocation-api/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// AllocationOutcome tells whether a quotation produced an order
type AllocationOutcome string

const (
	OutcomeAllocated     AllocationOutcome = "Allocated"
	OutcomeNoFulfillment AllocationOutcome = "NoFulfillment"
)

// errGateLost means another caller moved the quotation out of Pending first
var errGateLost = errors.New("allocation gate lost")

// AllocationResult describes the outcome of allocating a quotation
type AllocationResult struct {
	QuotationID           uint              `json:"quotation_id"`
	Outcome               AllocationOutcome `json:"outcome"`
	OrderID               *uint             `json:"order_id,omitempty"`
	DistributorID         uint              `json:"distributor_id,omitempty"`
	TotalAmount           decimal.Decimal   `json:"total_amount"`
	EstimatedDeliveryDate *time.Time        `json:"estimated_delivery_date,omitempty"`
	Score                 float64           `json:"score"`
	// AlreadyAllocated is true when an earlier call did the work and this one
	// only reports it
	AlreadyAllocated    bool  `json:"already_allocated"`
	NotificationWarning error `json:"-"`
}

// DistributorComparison is one row of a quotation comparison
type DistributorComparison struct {
	DistributorID   uint            `json:"distributor_id"`
	DistributorName string          `json:"distributor_name"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	MaxDeliveryDays int             `json:"max_delivery_days"`
	StockCoverage   float64         `json:"stock_coverage"`
	Eligible        bool            `json:"eligible"`
	Score           *float64        `json:"score,omitempty"`
	Rank            int             `json:"rank,omitempty"`
	Lines           []CandidateLine `json:"lines"`
}

// Comparison lays the submitted bids for a quotation side by side
type Comparison struct {
	QuotationID           uint                    `json:"quotation_id"`
	Status                models.QuotationStatus  `json:"status"`
	RespondedDistributors int                     `json:"responded_distributors"`
	QualifiedDistributors int                     `json:"qualified_distributors"`
	BestPrice             *decimal.Decimal        `json:"best_price,omitempty"`
	FastestDeliveryDays   *int                    `json:"fastest_delivery_days,omitempty"`
	RecommendedID         *uint                   `json:"recommended_distributor_id,omitempty"`
	Distributors          []DistributorComparison `json:"distributors"`
}

// AllocationService picks the winning distributor and creates the order
type AllocationService struct {
	base
	notifier *NotificationService
}

// Allocate scores the submitted bids of a quotation whose quorum is reached,
// creates an order for the best eligible distributor and completes the
// quotation, or cancels it when nobody can fulfill it. Repeated calls report
// the earlier outcome without side effects.
func (s *AllocationService) Allocate(ctx context.Context, quotationID uint) (*AllocationResult, error) {
	ctx, cancel := s.operationContext(ctx)
	defer cancel()

	quotation, err := s.repo.FindQuotation(ctx, quotationID)
	if err != nil {
		return nil, storeError("allocate", "quotation", quotationID, err)
	}

	if quotation.Status != models.QuotationPending {
		return s.settled(ctx, quotation)
	}

	responses, err := s.repo.ListDistributorResponses(ctx, quotationID)
	if err != nil {
		return nil, transient("allocate", err)
	}
	if quorum := quorumFromResponses(quotationID, responses); !quorum.Reached {
		return nil, &InvalidStateError{
			Code:     CodeQuorumNotReached,
			Resource: "quotation",
			ID:       quotationID,
			Current:  fmt.Sprintf("%s (%d of %d distributors responded)", quotation.Status, quorum.RespondedDistributors, quorum.TotalDistributors),
			Action:   "allocate",
		}
	}

	return s.allocate(ctx, quotation)
}

func (s *AllocationService) allocate(ctx context.Context, quotation *models.Quotation) (*AllocationResult, error) {
	var (
		order  *models.Order
		winner ScoredCandidate
		found  bool
	)

	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		swapped, err := tx.CompareAndSetQuotationStatus(ctx, quotation.ID, models.QuotationPending, models.QuotationAllocating)
		if err != nil {
			return err
		}
		if !swapped {
			return errGateLost
		}

		items, err := tx.ListQuotationItems(ctx, quotation.ID)
		if err != nil {
			return err
		}
		responses, err := tx.ListDistributorResponses(ctx, quotation.ID)
		if err != nil {
			return err
		}

		winner, _, found = SelectWinner(BuildCandidates(items, responses))
		if !found {
			return s.finish(ctx, tx, quotation.ID, models.QuotationCancelled)
		}

		order = newOrder(quotation, winner, s.now())
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		return s.finish(ctx, tx, quotation.ID, models.QuotationCompleted)
	})
	if errors.Is(err, errGateLost) {
		current, findErr := s.repo.FindQuotation(ctx, quotation.ID)
		if findErr != nil {
			return nil, storeError("allocate", "quotation", quotation.ID, findErr)
		}
		return s.settled(ctx, current)
	}
	if err != nil {
		return nil, transient("allocate", err)
	}

	log := s.logger.WithFields(logrus.Fields{
		"quotation_id": quotation.ID,
		"customer_id":  quotation.CustomerID,
	})

	if !found {
		log.Info("No distributor can fulfill quotation, cancelled")
		s.audit.Record(AuditEntry{
			Event:       AuditQuotationCancelled,
			QuotationID: quotation.ID,
			CustomerID:  quotation.CustomerID,
			Detail:      "no eligible distributor",
		})
		return &AllocationResult{
			QuotationID:         quotation.ID,
			Outcome:             OutcomeNoFulfillment,
			TotalAmount:         decimal.Zero,
			NotificationWarning: s.notifier.AllocationFailed(ctx, quotation.CustomerID),
		}, nil
	}

	log.WithFields(logrus.Fields{
		"order_id":       order.ID,
		"distributor_id": winner.DistributorID,
		"score":          winner.Composite,
	}).Info("Quotation allocated")
	s.audit.Record(AuditEntry{
		Event:         AuditQuotationAllocated,
		QuotationID:   quotation.ID,
		OrderID:       order.ID,
		CustomerID:    quotation.CustomerID,
		DistributorID: winner.DistributorID,
		Detail:        fmt.Sprintf("order %d for %s", order.ID, order.TotalAmount.StringFixed(2)),
	})

	result := allocatedResult(order, winner.Composite, false)
	result.NotificationWarning = s.notifyAllocated(ctx, order, winner)
	return result, nil
}

// finish moves a quotation out of Allocating. It must run on the same
// transaction that set the marker.
func (s *AllocationService) finish(ctx context.Context, tx repository.Repository, quotationID uint, to models.QuotationStatus) error {
	swapped, err := tx.CompareAndSetQuotationStatus(ctx, quotationID, models.QuotationAllocating, to)
	if err != nil {
		return err
	}
	if !swapped {
		return &ConcurrencyError{Resource: "quotation", ID: quotationID, Message: "allocation marker changed during allocation"}
	}
	return nil
}

func (s *AllocationService) notifyAllocated(ctx context.Context, order *models.Order, winner ScoredCandidate) error {
	distributor, err := s.repo.FindDistributor(ctx, order.DistributorID)
	if err != nil {
		s.logger.WithField("order_id", order.ID).WithError(err).Warn("Failed to load distributor for notification")
		return fmt.Errorf("failed to load distributor for notification: %w", err)
	}
	return s.notifier.AllocationSucceeded(ctx, order, distributor, winner)
}

// settled reports the outcome of a quotation that is no longer Pending
func (s *AllocationService) settled(ctx context.Context, quotation *models.Quotation) (*AllocationResult, error) {
	switch quotation.Status {
	case models.QuotationCompleted:
		order, err := s.repo.FindOrderByQuotation(ctx, quotation.ID)
		if err != nil {
			return nil, storeError("allocate", "order for quotation", quotation.ID, err)
		}
		return allocatedResult(order, 0, true), nil
	case models.QuotationCancelled:
		return &AllocationResult{
			QuotationID:      quotation.ID,
			Outcome:          OutcomeNoFulfillment,
			TotalAmount:      decimal.Zero,
			AlreadyAllocated: true,
		}, nil
	default:
		return nil, &ConcurrencyError{Resource: "quotation", ID: quotation.ID, Message: "allocation already in progress"}
	}
}

// CompareQuotation lays out every distributor's submitted bids with its
// eligibility and, for eligible ones, the composite score and rank
func (s *AllocationService) CompareQuotation(ctx context.Context, quotationID uint) (*Comparison, error) {
	ctx, cancel := s.operationContext(ctx)
	defer cancel()

	quotation, err := s.repo.FindQuotation(ctx, quotationID)
	if err != nil {
		return nil, storeError("compare quotation", "quotation", quotationID, err)
	}
	items, err := s.repo.ListQuotationItems(ctx, quotationID)
	if err != nil {
		return nil, transient("compare quotation", err)
	}
	responses, err := s.repo.ListDistributorResponses(ctx, quotationID)
	if err != nil {
		return nil, transient("compare quotation", err)
	}
	distributors, err := s.repo.ListDistributors(ctx)
	if err != nil {
		return nil, transient("compare quotation", err)
	}

	submitted := make([]models.DistributorResponse, 0, len(responses))
	for _, r := range responses {
		if r.Submitted {
			submitted = append(submitted, r)
		}
	}

	names := make(map[uint]string, len(distributors))
	for _, d := range distributors {
		names[d.ID] = d.Name
	}

	candidates := BuildCandidates(items, submitted)
	_, ranked, _ := SelectWinner(candidates)

	comparison := &Comparison{
		QuotationID:           quotation.ID,
		Status:                quotation.Status,
		RespondedDistributors: len(candidates),
		QualifiedDistributors: len(ranked),
		Distributors:          make([]DistributorComparison, 0, len(candidates)),
	}

	for i, sc := range ranked {
		score := sc.Composite
		row := comparisonRow(sc.Candidate, names)
		row.Score = &score
		row.Rank = i + 1
		comparison.Distributors = append(comparison.Distributors, row)

		if comparison.BestPrice == nil || sc.TotalPrice.LessThan(*comparison.BestPrice) {
			price := sc.TotalPrice
			comparison.BestPrice = &price
		}
		if comparison.FastestDeliveryDays == nil || sc.MaxDeliveryDays < *comparison.FastestDeliveryDays {
			days := sc.MaxDeliveryDays
			comparison.FastestDeliveryDays = &days
		}
	}
	if len(ranked) > 0 {
		id := ranked[0].DistributorID
		comparison.RecommendedID = &id
	}
	for _, c := range candidates {
		if !c.Eligible {
			comparison.Distributors = append(comparison.Distributors, comparisonRow(c, names))
		}
	}

	return comparison, nil
}

func comparisonRow(c Candidate, names map[uint]string) DistributorComparison {
	return DistributorComparison{
		DistributorID:   c.DistributorID,
		DistributorName: names[c.DistributorID],
		TotalPrice:      c.TotalPrice,
		MaxDeliveryDays: c.MaxDeliveryDays,
		StockCoverage:   c.StockCoverage,
		Eligible:        c.Eligible,
		Lines:           c.Lines,
	}
}

// newOrder builds the order for the winning candidate at its bid prices
func newOrder(quotation *models.Quotation, winner ScoredCandidate, now time.Time) *models.Order {
	eta := now.AddDate(0, 0, winner.MaxDeliveryDays)
	order := &models.Order{
		QuotationID:           quotation.ID,
		CustomerID:            quotation.CustomerID,
		DistributorID:         winner.DistributorID,
		TotalAmount:           winner.TotalPrice,
		Status:                models.OrderPending,
		EstimatedDeliveryDate: &eta,
		CreatedAt:             now,
		UpdatedAt:             now,
		Items:                 make([]models.OrderItem, 0, len(winner.Lines)),
	}
	for _, line := range winner.Lines {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:    line.ProductID,
			Quantity:     line.RequiredQuantity,
			PricePerUnit: line.PricePerUnit,
		})
	}
	return order
}

func allocatedResult(order *models.Order, score float64, already bool) *AllocationResult {
	orderID := order.ID
	return &AllocationResult{
		QuotationID:           order.QuotationID,
		Outcome:               OutcomeAllocated,
		OrderID:               &orderID,
		DistributorID:         order.DistributorID,
		TotalAmount:           order.TotalAmount,
		EstimatedDeliveryDate: order.EstimatedDeliveryDate,
		Score:                 score,
		AlreadyAllocated:      already,
	}
}
