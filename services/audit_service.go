package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Audit event names
const (
	AuditQuotationCreated   = "quotation.created"
	AuditResponsesSubmitted = "responses.submitted"
	AuditQuotationAllocated = "quotation.allocated"
	AuditQuotationCancelled = "quotation.cancelled"
	AuditOrderConfirmed     = "order.confirmed"
	AuditOrderCancelled     = "order.cancelled"
	AuditOrderDelivered     = "order.delivered"
	AuditOrderNotified      = "order.notified"
)

const (
	auditBufferSize     = 1024
	auditUploadTimeout  = 30 * time.Second
	auditContentType    = "application/x-ndjson"
	defaultAuditBatch   = 100
	defaultAuditFlushIn = 5 * time.Second
)

// AuditEntry records one state change
type AuditEntry struct {
	ID            string    `json:"id"`
	Event         string    `json:"event"`
	QuotationID   uint      `json:"quotation_id,omitempty"`
	OrderID       uint      `json:"order_id,omitempty"`
	CustomerID    uint      `json:"customer_id,omitempty"`
	DistributorID uint      `json:"distributor_id,omitempty"`
	Detail        string    `json:"detail,omitempty"`
	At            time.Time `json:"at"`
}

func (e AuditEntry) fields() logrus.Fields {
	fields := logrus.Fields{"audit_id": e.ID, "event": e.Event}
	if e.QuotationID != 0 {
		fields["quotation_id"] = e.QuotationID
	}
	if e.OrderID != 0 {
		fields["order_id"] = e.OrderID
	}
	if e.CustomerID != 0 {
		fields["customer_id"] = e.CustomerID
	}
	if e.DistributorID != 0 {
		fields["distributor_id"] = e.DistributorID
	}
	return fields
}

// AuditLog is an append-only sink for state changes. Record never blocks
// the caller; entries are logged and, when an archive is set, shipped to S3
// in batches by a background goroutine.
type AuditLog struct {
	entries       chan AuditEntry
	done          chan struct{}
	logger        *logrus.Logger
	archive       S3Interface
	batchSize     int
	flushInterval time.Duration

	mu     sync.RWMutex
	closed bool
}

// NewAuditLog starts the background writer. archive may be nil, in which
// case entries are only logged.
func NewAuditLog(logger *logrus.Logger, archive S3Interface, batchSize int, flushInterval time.Duration) *AuditLog {
	if batchSize <= 0 {
		batchSize = defaultAuditBatch
	}
	if flushInterval <= 0 {
		flushInterval = defaultAuditFlushIn
	}

	a := &AuditLog{
		entries:       make(chan AuditEntry, auditBufferSize),
		done:          make(chan struct{}),
		logger:        logger,
		archive:       archive,
		batchSize:     batchSize,
		flushInterval: flushInterval,
	}
	go a.run()
	return a
}

// Record enqueues an entry. A full buffer or a closed log drops it.
// Recording on a nil AuditLog is a no-op.
func (a *AuditLog) Record(entry AuditEntry) {
	if a == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		a.logger.WithFields(entry.fields()).Warn("Audit log closed, dropping entry")
		return
	}

	select {
	case a.entries <- entry:
	default:
		a.logger.WithFields(entry.fields()).Warn("Audit buffer full, dropping entry")
	}
}

// Close stops accepting entries and waits for pending ones to be flushed
func (a *AuditLog) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.entries)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("audit log did not flush: %w", ctx.Err())
	}
}

func (a *AuditLog) run() {
	defer close(a.done)

	ticker := time.NewTicker(a.flushInterval)
	defer ticker.Stop()

	batch := make([]AuditEntry, 0, a.batchSize)
	for {
		select {
		case entry, ok := <-a.entries:
			if !ok {
				a.flush(batch)
				return
			}
			a.logger.WithFields(entry.fields()).Info(entry.Detail)
			if a.archive == nil {
				continue
			}
			batch = append(batch, entry)
			if len(batch) >= a.batchSize {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (a *AuditLog) flush(batch []AuditEntry) {
	if a.archive == nil || len(batch) == 0 {
		return
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	for _, entry := range batch {
		if err := encoder.Encode(entry); err != nil {
			a.logger.WithFields(entry.fields()).WithError(err).Warn("Failed to encode audit entry")
		}
	}

	key := AuditObjectKey(time.Now().UTC(), uuid.New().String())
	ctx, cancel := context.WithTimeout(context.Background(), auditUploadTimeout)
	defer cancel()

	if err := a.archive.UploadObject(ctx, key, buf.Bytes(), auditContentType); err != nil {
		a.logger.WithError(err).WithFields(logrus.Fields{
			"key":     key,
			"entries": len(batch),
		}).Warn("Failed to archive audit entries")
		return
	}
	a.logger.WithFields(logrus.Fields{"key": key, "entries": len(batch)}).Debug("Archived audit entries")
}

// AuditObjectKey returns the S3 key for a batch written at t
func AuditObjectKey(t time.Time, id string) string {
	return fmt.Sprintf("audit/%s/%s.jsonl", t.Format("2006/01/02"), id)
}
