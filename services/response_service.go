package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/kendall-kelly/quotation-allocation-api/models"
	"github.com/kendall-kelly/quotation-allocation-api/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Bid is a distributor's answer for one response placeholder
type Bid struct {
	ResponseID        uint            `json:"response_id"`
	PricePerUnit      decimal.Decimal `json:"price_per_unit"`
	AvailableQuantity int             `json:"available_quantity"`
	DeliveryDays      int             `json:"delivery_days"`
}

// SubmissionResult describes an accepted batch of bids
type SubmissionResult struct {
	Accepted      int               `json:"accepted"`
	QuotationID   uint              `json:"quotation_id"`
	QuorumReached bool              `json:"quorum_reached"`
	Allocation    *AllocationResult `json:"allocation,omitempty"`
	// AllocationWarning is set when the bids were stored but the follow-up
	// allocation could not run. The quotation stays Pending and can be
	// allocated explicitly.
	AllocationWarning error `json:"-"`
}

// QuorumStatus reports how many distributors have answered a quotation
type QuorumStatus struct {
	QuotationID           uint `json:"quotation_id"`
	TotalDistributors     int  `json:"total_distributors"`
	RespondedDistributors int  `json:"responded_distributors"`
	Reached               bool `json:"reached"`
}

// PendingResponse is a placeholder a distributor still has to answer
type PendingResponse struct {
	ResponseID       uint `json:"response_id"`
	QuotationID      uint `json:"quotation_id"`
	ProductID        uint `json:"product_id"`
	RequiredQuantity int  `json:"required_quantity"`
}

// ResponseService collects distributor bids
type ResponseService struct {
	base
	allocator *AllocationService
}

// SubmitResponse applies a batch of bids for one quotation. When the batch
// completes the quorum, allocation runs straight away.
func (s *ResponseService) SubmitResponse(ctx context.Context, distributorID uint, bids []Bid) (*SubmissionResult, error) {
	ctx, cancel := s.operationContext(ctx)
	defer cancel()

	if err := validateBids(bids); err != nil {
		return nil, err
	}

	var quotationID uint
	submittedAt := s.now()

	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		for _, bid := range bids {
			row, err := tx.FindDistributorResponse(ctx, bid.ResponseID)
			if err != nil {
				return storeError("submit response", "distributor response", bid.ResponseID, err)
			}
			if row.DistributorID != distributorID {
				return &AuthorizationError{
					Message: fmt.Sprintf("Distributor %d is not allowed to answer response %d", distributorID, bid.ResponseID),
				}
			}

			if quotationID == 0 {
				quotationID = row.QuotationID
				quotation, err := tx.FindQuotation(ctx, quotationID)
				if err != nil {
					return storeError("submit response", "quotation", quotationID, err)
				}
				if quotation.Status != models.QuotationPending {
					return &InvalidStateError{
						Code:     CodeIllegalState,
						Resource: "quotation",
						ID:       quotationID,
						Current:  string(quotation.Status),
						Action:   "submit responses for",
					}
				}
			} else if row.QuotationID != quotationID {
				return &ValidationError{
					Code:    CodeInvalidBid,
					Message: "All responses in a batch must belong to the same quotation",
				}
			}

			updated, err := tx.SubmitDistributorResponse(ctx, repository.ResponseSubmission{
				ResponseID:        bid.ResponseID,
				DistributorID:     distributorID,
				PricePerUnit:      bid.PricePerUnit,
				AvailableQuantity: bid.AvailableQuantity,
				DeliveryDays:      bid.DeliveryDays,
				SubmittedAt:       submittedAt,
			})
			if err != nil {
				return err
			}
			if !updated {
				return &ConcurrencyError{Resource: "distributor response", ID: bid.ResponseID, Message: "response changed during submission"}
			}
		}
		return nil
	})
	if err != nil {
		return nil, transient("submit response", err)
	}

	log := s.logger.WithFields(logrus.Fields{
		"quotation_id":   quotationID,
		"distributor_id": distributorID,
	})
	log.WithField("bids", len(bids)).Info("Distributor responses submitted")
	s.audit.Record(AuditEntry{
		Event:         AuditResponsesSubmitted,
		QuotationID:   quotationID,
		DistributorID: distributorID,
		Detail:        fmt.Sprintf("%d responses submitted", len(bids)),
	})

	result := &SubmissionResult{Accepted: len(bids), QuotationID: quotationID}

	status, err := s.quorumStatus(ctx, quotationID)
	if err != nil {
		log.WithError(err).Warn("Failed to check quorum after submission")
		result.AllocationWarning = err
		return result, nil
	}
	result.QuorumReached = status.Reached
	if !status.Reached {
		return result, nil
	}

	allocation, err := s.allocator.Allocate(ctx, quotationID)
	switch {
	case err == nil:
		result.Allocation = allocation
	case isLostAllocationRace(err):
		log.WithError(err).Debug("Allocation already handled by another submitter")
	default:
		log.WithError(err).Warn("Allocation after quorum failed")
		result.AllocationWarning = err
	}
	return result, nil
}

// PendingResponses lists the placeholders the distributor has not answered
// yet on quotations that are still open, oldest quotation first.
func (s *ResponseService) PendingResponses(ctx context.Context, distributorID uint) ([]PendingResponse, error) {
	ctx, cancel := s.operationContext(ctx)
	defer cancel()

	if _, err := s.repo.FindDistributor(ctx, distributorID); err != nil {
		return nil, storeError("pending responses", "distributor", distributorID, err)
	}

	rows, err := s.repo.ListPendingResponses(ctx, distributorID)
	if err != nil {
		return nil, transient("pending responses", err)
	}

	required := make(map[uint]map[uint]int)
	pending := make([]PendingResponse, 0, len(rows))
	for _, row := range rows {
		quantities, ok := required[row.QuotationID]
		if !ok {
			items, err := s.repo.ListQuotationItems(ctx, row.QuotationID)
			if err != nil {
				return nil, transient("pending responses", err)
			}
			quantities = make(map[uint]int, len(items))
			for _, item := range items {
				quantities[item.ProductID] = item.RequiredQuantity
			}
			required[row.QuotationID] = quantities
		}
		pending = append(pending, PendingResponse{
			ResponseID:       row.ID,
			QuotationID:      row.QuotationID,
			ProductID:        row.ProductID,
			RequiredQuantity: quantities[row.ProductID],
		})
	}
	return pending, nil
}

// IsQuorumReached reports whether every placeholder of the quotation has been
// submitted. A quotation without placeholders never reaches quorum.
func (s *ResponseService) IsQuorumReached(ctx context.Context, quotationID uint) (bool, error) {
	status, err := s.QuorumStatus(ctx, quotationID)
	if err != nil {
		return false, err
	}
	return status.Reached, nil
}

// QuorumStatus counts the distributors that have answered every item
func (s *ResponseService) QuorumStatus(ctx context.Context, quotationID uint) (*QuorumStatus, error) {
	ctx, cancel := s.operationContext(ctx)
	defer cancel()

	if _, err := s.repo.FindQuotation(ctx, quotationID); err != nil {
		return nil, storeError("quorum status", "quotation", quotationID, err)
	}
	return s.quorumStatus(ctx, quotationID)
}

func (s *ResponseService) quorumStatus(ctx context.Context, quotationID uint) (*QuorumStatus, error) {
	responses, err := s.repo.ListDistributorResponses(ctx, quotationID)
	if err != nil {
		return nil, transient("quorum status", err)
	}
	status := quorumFromResponses(quotationID, responses)
	return &status, nil
}

func quorumFromResponses(quotationID uint, responses []models.DistributorResponse) QuorumStatus {
	pending := make(map[uint]bool)
	for _, r := range responses {
		if !r.Submitted {
			pending[r.DistributorID] = true
		} else if _, seen := pending[r.DistributorID]; !seen {
			pending[r.DistributorID] = false
		}
	}

	status := QuorumStatus{QuotationID: quotationID, TotalDistributors: len(pending)}
	for _, waiting := range pending {
		if !waiting {
			status.RespondedDistributors++
		}
	}
	status.Reached = len(responses) > 0 && status.RespondedDistributors == status.TotalDistributors
	return status
}

func validateBids(bids []Bid) error {
	if len(bids) == 0 {
		return &ValidationError{Code: CodeInvalidBid, Message: "At least one bid is required"}
	}

	seen := make(map[uint]bool, len(bids))
	for _, bid := range bids {
		switch {
		case bid.ResponseID == 0:
			return &ValidationError{Code: CodeInvalidBid, Message: "Response id is required"}
		case seen[bid.ResponseID]:
			return &ValidationError{Code: CodeInvalidBid, Message: fmt.Sprintf("Response %d appears more than once", bid.ResponseID)}
		case !bid.PricePerUnit.IsPositive():
			return &ValidationError{Code: CodeInvalidBid, Message: fmt.Sprintf("Price for response %d must be positive", bid.ResponseID)}
		case bid.AvailableQuantity < 0:
			return &ValidationError{Code: CodeInvalidBid, Message: fmt.Sprintf("Available quantity for response %d cannot be negative", bid.ResponseID)}
		case bid.DeliveryDays < 0:
			return &ValidationError{Code: CodeInvalidBid, Message: fmt.Sprintf("Delivery days for response %d cannot be negative", bid.ResponseID)}
		}
		seen[bid.ResponseID] = true
	}
	return nil
}

// isLostAllocationRace reports errors caused by another caller allocating
// the same quotation first
func isLostAllocationRace(err error) bool {
	var concurrency *ConcurrencyError
	var invalidState *InvalidStateError
	return errors.As(err, &concurrency) || errors.As(err, &invalidState)
}
