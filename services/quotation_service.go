package services

import (
	"context"
	"fmt"

	"github.com/kendall-kelly/quotation-allocation-api/models"
	"github.com/kendall-kelly/quotation-allocation-api/repository"
	"github.com/sirupsen/logrus"
)

// QuotationService turns a customer's cart into a quotation broadcast to
// every registered distributor
type QuotationService struct {
	base
}

// CreateQuotation snapshots the customer's cart into a Pending quotation,
// creates one unsubmitted response per (item, distributor) pair and empties
// the cart, all in one transaction.
func (s *QuotationService) CreateQuotation(ctx context.Context, customerID uint) (uint, error) {
	ctx, cancel := s.operationContext(ctx)
	defer cancel()

	if _, err := s.repo.FindCustomer(ctx, customerID); err != nil {
		return 0, storeError("create quotation", "customer", customerID, err)
	}

	now := s.now()
	quotation := models.Quotation{
		CustomerID: customerID,
		Status:     models.QuotationPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	var itemCount, distributorCount int

	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		cart, err := tx.ListCartItems(ctx, customerID)
		if err != nil {
			return err
		}
		if len(cart) == 0 {
			return &ValidationError{Code: CodeEmptyCart, Message: "Cart is empty"}
		}

		distributors, err := tx.ListDistributors(ctx)
		if err != nil {
			return err
		}
		if len(distributors) == 0 {
			return &ValidationError{Code: CodeNoDistributors, Message: "No distributors are registered to quote"}
		}

		if err := tx.CreateQuotation(ctx, &quotation); err != nil {
			return err
		}

		items := quotationItems(quotation.ID, cart)
		if err := tx.CreateQuotationItems(ctx, items); err != nil {
			return err
		}

		responses := make([]models.DistributorResponse, 0, len(items)*len(distributors))
		for _, item := range items {
			for _, distributor := range distributors {
				responses = append(responses, models.DistributorResponse{
					QuotationID:   quotation.ID,
					DistributorID: distributor.ID,
					ProductID:     item.ProductID,
				})
			}
		}
		if err := tx.CreateDistributorResponses(ctx, responses); err != nil {
			return err
		}

		itemCount, distributorCount = len(items), len(distributors)
		return tx.ClearCart(ctx, customerID)
	})
	if err != nil {
		return 0, transient("create quotation", err)
	}

	s.logger.WithFields(logrus.Fields{
		"quotation_id": quotation.ID,
		"customer_id":  customerID,
		"items":        itemCount,
		"distributors": distributorCount,
	}).Info("Quotation created")
	s.audit.Record(AuditEntry{
		Event:       AuditQuotationCreated,
		QuotationID: quotation.ID,
		CustomerID:  customerID,
		Detail:      fmt.Sprintf("quotation for %d items sent to %d distributors", itemCount, distributorCount),
	})

	return quotation.ID, nil
}

// quotationItems copies cart lines into quotation items. Lines for the same
// product are merged so each product is quoted once.
func quotationItems(quotationID uint, cart []models.CartItem) []models.QuotationItem {
	items := make([]models.QuotationItem, 0, len(cart))
	index := make(map[uint]int, len(cart))
	for _, line := range cart {
		if i, ok := index[line.ProductID]; ok {
			items[i].RequiredQuantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(items)
		items = append(items, models.QuotationItem{
			QuotationID:      quotationID,
			ProductID:        line.ProductID,
			RequiredQuantity: line.Quantity,
		})
	}
	return items
}
