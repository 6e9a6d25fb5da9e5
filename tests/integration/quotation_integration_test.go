package integration

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/quotation-allocation-api/config"
	"github.com/kendall-kelly/quotation-allocation-api/controllers"
	"github.com/kendall-kelly/quotation-allocation-api/middleware"
	"github.com/kendall-kelly/quotation-allocation-api/models"
	"github.com/kendall-kelly/quotation-allocation-api/repository"
	"github.com/kendall-kelly/quotation-allocation-api/services"
	"github.com/kendall-kelly/quotation-allocation-api/tests/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// QuotationIntegrationTestSuite runs the HTTP API against a configured
// database, engine and audit archive
type QuotationIntegrationTestSuite struct {
	suite.Suite
	cfg     *config.Config
	db      *gorm.DB
	router  *gin.Engine
	audit   *services.AuditLog
	archive *services.MockS3Service
	logHook *logtest.Hook
	fixture *testutil.Fixture
}

// SetupSuite runs once before all tests
func (suite *QuotationIntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)

	os.Setenv("GO_ENV", "test")
	os.Setenv("DATABASE_URL", ":memory:")
	os.Setenv("PORT", "8080")
	os.Setenv("OPERATION_TIMEOUT", "5s")
	os.Setenv("AUDIT_S3_BUCKET", "")
	os.Setenv("AUDIT_BATCH_SIZE", "2")

	cfg, err := config.Load()
	suite.Require().NoError(err)
	suite.cfg = cfg
}

// SetupTest runs before each test
func (suite *QuotationIntegrationTestSuite) SetupTest() {
	testutil.RequireTestEnvironment(suite.T())

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	suite.logHook = hook

	db, err := config.ConnectDatabase(suite.cfg.DatabaseURL, logger)
	suite.Require().NoError(err)
	suite.Require().NoError(repository.Migrate(db))
	suite.db = db

	suite.archive = services.NewMockS3Service()
	suite.audit = services.NewAuditLog(logger, suite.archive, suite.cfg.AuditBatchSize, time.Hour)

	repo := repository.NewGormRepository(db)
	engine := services.NewEngine(repo, services.EngineOptions{
		Logger:  logger,
		Audit:   suite.audit,
		Timeout: suite.cfg.OperationTimeout,
	})
	suite.fixture = &testutil.Fixture{DB: db, Repo: repo, Engine: engine, Logger: logger, Hook: hook}

	suite.router = gin.New()
	suite.router.Use(middleware.RequestLogger(logger))
	controllers.RegisterRoutes(suite.router.Group("/api/v1"), engine)
}

// TearDownTest runs after each test
func (suite *QuotationIntegrationTestSuite) TearDownTest() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	suite.NoError(suite.audit.Close(ctx))

	sqlDB, err := suite.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

func (suite *QuotationIntegrationTestSuite) request(method, path string, body interface{}) (int, map[string]interface{}) {
	w := testutil.PerformRequest(suite.T(), suite.router, method, path, body)
	return w.Code, testutil.DecodeResponse(suite.T(), w)
}

func (suite *QuotationIntegrationTestSuite) createQuotation(customerID uint) uint {
	status, body := suite.request(http.MethodPost, fmt.Sprintf("/api/v1/customers/%d/quotations", customerID), nil)
	suite.Require().Equal(http.StatusCreated, status, body)
	return uint(body["data"].(map[string]interface{})["quotation_id"].(float64))
}

func (suite *QuotationIntegrationTestSuite) bids(quotationID, distributorID uint, price string, available, days int) map[string]interface{} {
	var bids []map[string]interface{}
	for _, responseID := range testutil.PendingResponseIDs(suite.T(), suite.router, quotationID, distributorID) {
		bids = append(bids, map[string]interface{}{
			"response_id":        responseID,
			"price_per_unit":     price,
			"available_quantity": available,
			"delivery_days":      days,
		})
	}
	return map[string]interface{}{"bids": bids}
}

// auditEvents decodes every archived audit entry
func (suite *QuotationIntegrationTestSuite) auditEvents() []services.AuditEntry {
	var entries []services.AuditEntry
	for key, body := range suite.archive.GetUploadedObjects() {
		suite.True(strings.HasPrefix(key, "audit/"), key)
		scanner := bufio.NewScanner(bytes.NewReader(body))
		for scanner.Scan() {
			var entry services.AuditEntry
			suite.Require().NoError(json.Unmarshal(scanner.Bytes(), &entry))
			entries = append(entries, entry)
		}
	}
	return entries
}

// TestQuotationWorkflow_AllocateConfirmDeliver tests the full happy path
func (suite *QuotationIntegrationTestSuite) TestQuotationWorkflow_AllocateConfirmDeliver() {
	t := suite.T()
	customer := suite.fixture.CreateCustomer(t, "customer")
	cheap := suite.fixture.CreateDistributor(t, "cheap", "555-0100")
	fast := suite.fixture.CreateDistributor(t, "fast", "")
	phone := suite.fixture.CreateProduct(t, "phone")
	phoneCase := suite.fixture.CreateProduct(t, "case")
	suite.fixture.AddToCart(t, customer.ID, phone.ID, 1)
	suite.fixture.AddToCart(t, customer.ID, phoneCase.ID, 2)

	quotationID := suite.createQuotation(customer.ID)

	status, body := suite.request(http.MethodPost, fmt.Sprintf("/api/v1/distributors/%d/responses", cheap.ID), suite.bids(quotationID, cheap.ID, "10", 10, 7))
	suite.Require().Equal(http.StatusOK, status, body)

	status, body = suite.request(http.MethodGet, fmt.Sprintf("/api/v1/quotations/%d/quorum", quotationID), nil)
	suite.Require().Equal(http.StatusOK, status)
	suite.Equal(false, body["data"].(map[string]interface{})["reached"])

	status, body = suite.request(http.MethodPost, fmt.Sprintf("/api/v1/distributors/%d/responses", fast.ID), suite.bids(quotationID, fast.ID, "14", 2, 1))
	suite.Require().Equal(http.StatusOK, status, body)

	data := body["data"].(map[string]interface{})
	suite.Equal(true, data["quorum_reached"])
	allocation := data["allocation"].(map[string]interface{})
	suite.Equal(float64(cheap.ID), allocation["distributor_id"], "price dominates the score")
	suite.Equal("30", allocation["total_amount"])
	orderID := uint(allocation["order_id"].(float64))

	var quotation models.Quotation
	suite.Require().NoError(suite.db.First(&quotation, quotationID).Error)
	suite.Equal(models.QuotationCompleted, quotation.Status)

	status, _ = suite.request(http.MethodPut, fmt.Sprintf("/api/v1/orders/%d/confirm", orderID), nil)
	suite.Require().Equal(http.StatusOK, status)
	status, _ = suite.request(http.MethodPut, fmt.Sprintf("/api/v1/orders/%d/deliver", orderID), nil)
	suite.Require().Equal(http.StatusOK, status)

	status, body = suite.request(http.MethodGet, fmt.Sprintf("/api/v1/orders/%d/history", orderID), nil)
	suite.Require().Equal(http.StatusOK, status)
	history := body["data"].(map[string]interface{})["history"].([]interface{})
	suite.Len(history, 3)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	suite.Require().NoError(suite.audit.Close(ctx))

	events := map[string]int{}
	for _, entry := range suite.auditEvents() {
		events[entry.Event]++
	}
	suite.Equal(1, events[services.AuditQuotationCreated])
	suite.Equal(2, events[services.AuditResponsesSubmitted])
	suite.Equal(1, events[services.AuditQuotationAllocated])
	suite.Equal(1, events[services.AuditOrderConfirmed])
	suite.Equal(1, events[services.AuditOrderDelivered])
}

// TestQuotationWorkflow_ConcurrentFinalSubmissions checks that racing
// submitters produce exactly one order
func (suite *QuotationIntegrationTestSuite) TestQuotationWorkflow_ConcurrentFinalSubmissions() {
	t := suite.T()
	customer := suite.fixture.CreateCustomer(t, "customer")
	product := suite.fixture.CreateProduct(t, "phone")
	var distributors []models.Distributor
	for i := 0; i < 4; i++ {
		distributors = append(distributors, suite.fixture.CreateDistributor(t, fmt.Sprintf("d%d", i), ""))
	}
	suite.fixture.AddToCart(t, customer.ID, product.ID, 3)

	quotationID := suite.createQuotation(customer.ID)

	payloads := make([]map[string]interface{}, len(distributors))
	for i, d := range distributors {
		payloads[i] = suite.bids(quotationID, d.ID, fmt.Sprintf("%d", 20+i), 5, 3)
	}

	var wg sync.WaitGroup
	codes := make([]int, len(distributors))
	for i, d := range distributors {
		wg.Add(1)
		go func(i int, distributorID uint) {
			defer wg.Done()
			w := testutil.PerformRequest(t, suite.router, http.MethodPost, fmt.Sprintf("/api/v1/distributors/%d/responses", distributorID), payloads[i])
			codes[i] = w.Code
		}(i, d.ID)
	}
	wg.Wait()

	for i, code := range codes {
		suite.Equal(http.StatusOK, code, "distributor %d", i)
	}

	var orders []models.Order
	suite.Require().NoError(suite.db.Where("quotation_id = ?", quotationID).Find(&orders).Error)
	suite.Require().Len(orders, 1, "exactly one order per quotation")
	suite.Equal(distributors[0].ID, orders[0].DistributorID, "lowest price wins")

	for _, entry := range suite.logHook.AllEntries() {
		suite.NotEqual("Allocation after quorum failed", entry.Message, "lost races are not failures")
	}

	var notifications int64
	suite.db.Model(&models.Notification{}).Where("customer_id = ?", customer.ID).Count(&notifications)
	suite.Equal(int64(1), notifications, "the customer hears about the allocation once")
}

// TestQuotationWorkflow_RejectsLateBids checks that a closed quotation takes no more bids
func (suite *QuotationIntegrationTestSuite) TestQuotationWorkflow_RejectsLateBids() {
	t := suite.T()
	customer := suite.fixture.CreateCustomer(t, "customer")
	distributor := suite.fixture.CreateDistributor(t, "d1", "")
	product := suite.fixture.CreateProduct(t, "phone")
	suite.fixture.AddToCart(t, customer.ID, product.ID, 1)

	quotationID := suite.createQuotation(customer.ID)
	payload := suite.bids(quotationID, distributor.ID, "5", 5, 1)

	status, _ := suite.request(http.MethodPost, fmt.Sprintf("/api/v1/distributors/%d/responses", distributor.ID), payload)
	suite.Require().Equal(http.StatusOK, status)

	status, body := suite.request(http.MethodPost, fmt.Sprintf("/api/v1/distributors/%d/responses", distributor.ID), payload)
	suite.Equal(http.StatusConflict, status)
	suite.Equal(services.CodeIllegalState, body["error"].(map[string]interface{})["code"])
}

// TestQuotationWorkflow_EmptyCart tests that an empty cart cannot be quoted
func (suite *QuotationIntegrationTestSuite) TestQuotationWorkflow_EmptyCart() {
	customer := suite.fixture.CreateCustomer(suite.T(), "customer")
	suite.fixture.CreateDistributor(suite.T(), "d1", "")

	status, body := suite.request(http.MethodPost, fmt.Sprintf("/api/v1/customers/%d/quotations", customer.ID), nil)
	suite.Equal(http.StatusBadRequest, status)
	suite.Equal(services.CodeEmptyCart, body["error"].(map[string]interface{})["code"])
}

func TestQuotationIntegrationSuite(t *testing.T) {
	suite.Run(t, new(QuotationIntegrationTestSuite))
}
