package services

import (
	"context"
	"testing"
	"time"

	"github.com/kendall-kelly/quotation-allocation-api/models"
	"github.com/kendall-kelly/quotation-allocation-api/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	db     *gorm.DB
	repo   *repository.GormRepository
	engine *Engine
	logger *logrus.Logger
	hook   *logtest.Hook
}

// offer is a test shorthand for one bid on a product
type offer struct {
	price     string
	available int
	days      int
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := repository.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func setupTestEnv(t *testing.T) *testEnv {
	return setupTestEnvWithRepo(t, nil)
}

// setupTestEnvWithRepo builds an engine on top of wrap(repo) when wrap is set
func setupTestEnvWithRepo(t *testing.T, wrap func(repository.Repository) repository.Repository) *testEnv {
	db := setupTestDB(t)
	repo := repository.NewGormRepository(db)
	log, hook := logtest.NewNullLogger()

	var engineRepo repository.Repository = repo
	if wrap != nil {
		engineRepo = wrap(repo)
	}

	engine := NewEngine(engineRepo, EngineOptions{
		Logger:  log,
		Clock:   func() time.Time { return testNow },
		Timeout: 5 * time.Second,
	})

	return &testEnv{db: db, repo: repo, engine: engine, logger: log, hook: hook}
}

func (e *testEnv) customer(t *testing.T, name string) models.Customer {
	customer := models.Customer{Name: name, Email: name + "@example.com"}
	require.NoError(t, e.db.Create(&customer).Error)
	return customer
}

func (e *testEnv) distributor(t *testing.T, name, phone string) models.Distributor {
	distributor := models.Distributor{Name: name, Email: name + "@example.com", Phone: phone}
	require.NoError(t, e.db.Create(&distributor).Error)
	return distributor
}

func (e *testEnv) product(t *testing.T, name string) models.Product {
	product := models.Product{Name: name}
	require.NoError(t, e.db.Create(&product).Error)
	return product
}

func (e *testEnv) addToCart(t *testing.T, customerID, productID uint, quantity int) {
	require.NoError(t, e.db.Create(&models.CartItem{
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   quantity,
	}).Error)
}

// quote fills the cart with the given product quantities and creates a quotation
func (e *testEnv) quote(t *testing.T, customerID uint, quantities map[uint]int, products ...uint) uint {
	for _, productID := range products {
		e.addToCart(t, customerID, productID, quantities[productID])
	}
	quotationID, err := e.engine.CreateQuotation(context.Background(), customerID)
	require.NoError(t, err)
	return quotationID
}

func (e *testEnv) responses(t *testing.T, quotationID, distributorID uint) []models.DistributorResponse {
	var rows []models.DistributorResponse
	require.NoError(t, e.db.
		Where("quotation_id = ? AND distributor_id = ?", quotationID, distributorID).
		Order("id ASC").
		Find(&rows).Error)
	return rows
}

// bids builds one bid per response row of the distributor from offers keyed by product
func (e *testEnv) bids(t *testing.T, quotationID, distributorID uint, offers map[uint]offer) []Bid {
	rows := e.responses(t, quotationID, distributorID)
	bids := make([]Bid, 0, len(rows))
	for _, row := range rows {
		o, ok := offers[row.ProductID]
		require.True(t, ok, "no offer for product %d", row.ProductID)
		bids = append(bids, Bid{
			ResponseID:        row.ID,
			PricePerUnit:      decimal.RequireFromString(o.price),
			AvailableQuantity: o.available,
			DeliveryDays:      o.days,
		})
	}
	return bids
}

func (e *testEnv) submit(t *testing.T, quotationID, distributorID uint, offers map[uint]offer) *SubmissionResult {
	result, err := e.engine.SubmitResponse(context.Background(), distributorID, e.bids(t, quotationID, distributorID, offers))
	require.NoError(t, err)
	return result
}

func (e *testEnv) quotationStatus(t *testing.T, quotationID uint) models.QuotationStatus {
	var quotation models.Quotation
	require.NoError(t, e.db.First(&quotation, quotationID).Error)
	return quotation.Status
}

func (e *testEnv) notifications(t *testing.T, customerID uint) []models.Notification {
	var notifications []models.Notification
	require.NoError(t, e.db.Where("customer_id = ?", customerID).Order("id ASC").Find(&notifications).Error)
	return notifications
}

func (e *testEnv) countOrders(t *testing.T) int64 {
	var count int64
	require.NoError(t, e.db.Model(&models.Order{}).Count(&count).Error)
	return count
}

// failingNotifications rejects every notification write
type failingNotifications struct {
	repository.Repository
	err error
}

func (f *failingNotifications) CreateNotification(context.Context, *models.Notification) error {
	return f.err
}
