package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/kendall-kelly/quotation-allocation-api/models"
	"gorm.io/gorm"
)

// createBatchSize bounds the number of rows per INSERT when fanning out
const createBatchSize = 200

// GormRepository implements Repository on top of GORM
type GormRepository struct {
	db *gorm.DB
}

var _ Repository = (*GormRepository)(nil)

// NewGormRepository creates a repository backed by the given database handle
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Migrate creates or updates the schema for every model
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Transaction runs fn inside a database transaction
func (r *GormRepository) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{db: tx})
	})
}

func (r *GormRepository) FindCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		return nil, translate(err, "customer")
	}
	return &customer, nil
}

func (r *GormRepository) FindDistributor(ctx context.Context, id uint) (*models.Distributor, error) {
	var distributor models.Distributor
	if err := r.db.WithContext(ctx).First(&distributor, id).Error; err != nil {
		return nil, translate(err, "distributor")
	}
	return &distributor, nil
}

func (r *GormRepository) ListDistributors(ctx context.Context) ([]models.Distributor, error) {
	var distributors []models.Distributor
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&distributors).Error; err != nil {
		return nil, fmt.Errorf("failed to list distributors: %w", err)
	}
	return distributors, nil
}

func (r *GormRepository) FindProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, translate(err, "product")
	}
	return &product, nil
}

func (r *GormRepository) ListCartItems(ctx context.Context, customerID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	return items, nil
}

func (r *GormRepository) ClearCart(ctx context.Context, customerID uint) error {
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (r *GormRepository) CreateQuotation(ctx context.Context, quotation *models.Quotation) error {
	if err := r.db.WithContext(ctx).Create(quotation).Error; err != nil {
		return fmt.Errorf("failed to create quotation: %w", err)
	}
	return nil
}

func (r *GormRepository) CreateQuotationItems(ctx context.Context, items []models.QuotationItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&items, createBatchSize).Error; err != nil {
		return fmt.Errorf("failed to create quotation items: %w", err)
	}
	return nil
}

func (r *GormRepository) CreateDistributorResponses(ctx context.Context, responses []models.DistributorResponse) error {
	if len(responses) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&responses, createBatchSize).Error; err != nil {
		return fmt.Errorf("failed to create distributor responses: %w", err)
	}
	return nil
}

func (r *GormRepository) FindQuotation(ctx context.Context, id uint) (*models.Quotation, error) {
	var quotation models.Quotation
	if err := r.db.WithContext(ctx).First(&quotation, id).Error; err != nil {
		return nil, translate(err, "quotation")
	}
	return &quotation, nil
}

func (r *GormRepository) ListQuotationItems(ctx context.Context, quotationID uint) ([]models.QuotationItem, error) {
	var items []models.QuotationItem
	if err := r.db.WithContext(ctx).
		Where("quotation_id = ?", quotationID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list quotation items: %w", err)
	}
	return items, nil
}

func (r *GormRepository) CompareAndSetQuotationStatus(ctx context.Context, id uint, from, to models.QuotationStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Quotation{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update quotation status: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *GormRepository) FindDistributorResponse(ctx context.Context, id uint) (*models.DistributorResponse, error) {
	var response models.DistributorResponse
	if err := r.db.WithContext(ctx).First(&response, id).Error; err != nil {
		return nil, translate(err, "distributor response")
	}
	return &response, nil
}

func (r *GormRepository) ListDistributorResponses(ctx context.Context, quotationID uint) ([]models.DistributorResponse, error) {
	var responses []models.DistributorResponse
	if err := r.db.WithContext(ctx).
		Where("quotation_id = ?", quotationID).
		Order("distributor_id ASC, id ASC").
		Find(&responses).Error; err != nil {
		return nil, fmt.Errorf("failed to list distributor responses: %w", err)
	}
	return responses, nil
}

func (r *GormRepository) ListPendingResponses(ctx context.Context, distributorID uint) ([]models.DistributorResponse, error) {
	var responses []models.DistributorResponse
	if err := r.db.WithContext(ctx).
		Joins("JOIN quotations ON quotations.id = distributor_responses.quotation_id").
		Where("distributor_responses.distributor_id = ? AND distributor_responses.submitted = ? AND quotations.status = ?",
			distributorID, false, models.QuotationPending).
		Order("distributor_responses.quotation_id ASC, distributor_responses.id ASC").
		Find(&responses).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending responses: %w", err)
	}
	return responses, nil
}

func (r *GormRepository) SubmitDistributorResponse(ctx context.Context, s ResponseSubmission) (bool, error) {
	submittedAt := s.SubmittedAt
	result := r.db.WithContext(ctx).
		Model(&models.DistributorResponse{}).
		Where("id = ? AND distributor_id = ?", s.ResponseID, s.DistributorID).
		Updates(map[string]interface{}{
			"price_per_unit":     s.PricePerUnit,
			"available_quantity": s.AvailableQuantity,
			"delivery_days":      s.DeliveryDays,
			"submitted":          true,
			"submitted_at":       &submittedAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to submit distributor response: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *GormRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *GormRepository) FindOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&order, id).Error; err != nil {
		return nil, translate(err, "order")
	}
	return &order, nil
}

func (r *GormRepository) FindOrderByQuotation(ctx context.Context, quotationID uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("quotation_id = ?", quotationID).
		First(&order).Error; err != nil {
		return nil, translate(err, "order")
	}
	return &order, nil
}

func (r *GormRepository) TransitionOrder(ctx context.Context, id uint, t OrderTransition) (bool, error) {
	updates := map[string]interface{}{"status": t.To}
	if t.ConfirmedAt != nil {
		updates["confirmed_at"] = t.ConfirmedAt
	}

	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status IN ?", id, t.From).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to transition order: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *GormRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *GormRepository) ListNotifications(ctx context.Context, customerID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (r *GormRepository) CountUnreadNotifications(ctx context.Context, customerID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("customer_id = ? AND is_read = ?", customerID, false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

// translate maps GORM's not-found error onto ErrNotFound
func translate(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", resource, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", resource, err)
}
