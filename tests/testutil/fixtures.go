package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kendall-kelly/quotation-allocation-api/models"
	"github.com/kendall-kelly/quotation-allocation-api/repository"
	"github.com/kendall-kelly/quotation-allocation-api/services"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Fixture bundles an in-memory database with an engine running on it
type Fixture struct {
	DB     *gorm.DB
	Repo   *repository.GormRepository
	Engine *services.Engine
	Logger *logrus.Logger
	Hook   *logtest.Hook
}

// SetupTestDB opens a migrated in-memory SQLite database that lives as long as the test
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

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

// NewFixture creates a database, repository and engine for one test
func NewFixture(t *testing.T) *Fixture {
	t.Helper()

	db := SetupTestDB(t)
	repo := repository.NewGormRepository(db)
	log, hook := logtest.NewNullLogger()

	return &Fixture{
		DB:   db,
		Repo: repo,
		Engine: services.NewEngine(repo, services.EngineOptions{
			Logger:  log,
			Timeout: 5 * time.Second,
		}),
		Logger: log,
		Hook:   hook,
	}
}

// CreateCustomer inserts a customer
func (f *Fixture) CreateCustomer(t *testing.T, name string) models.Customer {
	t.Helper()
	customer := models.Customer{Name: name, Email: name + "@example.com"}
	require.NoError(t, f.DB.Create(&customer).Error)
	return customer
}

// CreateDistributor inserts a distributor
func (f *Fixture) CreateDistributor(t *testing.T, name, phone string) models.Distributor {
	t.Helper()
	distributor := models.Distributor{Name: name, Email: name + "@example.com", Phone: phone}
	require.NoError(t, f.DB.Create(&distributor).Error)
	return distributor
}

// CreateProduct inserts a product
func (f *Fixture) CreateProduct(t *testing.T, name string) models.Product {
	t.Helper()
	product := models.Product{Name: name}
	require.NoError(t, f.DB.Create(&product).Error)
	return product
}

// AddToCart puts a product in a customer's cart
func (f *Fixture) AddToCart(t *testing.T, customerID, productID uint, quantity int) {
	t.Helper()
	require.NoError(t, f.DB.Create(&models.CartItem{
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   quantity,
	}).Error)
}

// PendingResponseIDs asks the API for the distributor's open placeholders on
// one quotation and maps product id to response id
func PendingResponseIDs(t *testing.T, handler http.Handler, quotationID, distributorID uint) map[uint]uint {
	t.Helper()
	w := PerformRequest(t, handler, http.MethodGet, fmt.Sprintf("/api/v1/distributors/%d/responses", distributorID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := DecodeResponse(t, w)["data"].(map[string]interface{})
	ids := make(map[uint]uint)
	for _, raw := range data["responses"].([]interface{}) {
		row := raw.(map[string]interface{})
		if uint(row["quotation_id"].(float64)) != quotationID {
			continue
		}
		ids[uint(row["product_id"].(float64))] = uint(row["response_id"].(float64))
	}
	return ids
}

// PerformRequest sends a JSON request through handler and records the response
func PerformRequest(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return Serve(handler, req)
}

// Serve records handler's response to req
func Serve(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

// DecodeResponse parses a JSON response envelope
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "Response should be valid JSON: %s", w.Body.String())
	return response
}
