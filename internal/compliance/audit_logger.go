package compliance

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go-label-printer/internal/models"

	"golang.org/x/crypto/blake2b"
	"gorm.io/gorm"
)

const (
	EventCreate = "CREATE"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"

	ObjectLabelTemplate = "label_template"
)

// AuditLogger appends hash-chained events for changes to label templates.
type AuditLogger struct {
	db       *gorm.DB
	lastHash string
	mu       sync.Mutex
	now      func() time.Time
}

// NewAuditLogger resumes the chain from the newest stored event.
func NewAuditLogger(db *gorm.DB) (*AuditLogger, error) {
	al := &AuditLogger{db: db, now: time.Now}

	var lastEvent models.AuditEvent
	err := db.Order("id DESC").First(&lastEvent).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		al.lastHash = ""
	case err != nil:
		return nil, fmt.Errorf("failed to get last audit event: %w", err)
	default:
		al.lastHash = lastEvent.EventHash
	}

	return al, nil
}

// LogEvent appends an event. oldValues and newValues are stored as JSON.
func (al *AuditLogger) LogEvent(eventType, objectType, objectID, action string, oldValues, newValues interface{}, ipAddress, requestID string) error {
	al.mu.Lock()
	defer al.mu.Unlock()

	oldJSON, err := marshalValues(oldValues)
	if err != nil {
		return err
	}
	newJSON, err := marshalValues(newValues)
	if err != nil {
		return err
	}

	event := &models.AuditEvent{
		EventType:    eventType,
		ObjectType:   objectType,
		ObjectID:     objectID,
		Action:       action,
		OldValues:    oldJSON,
		NewValues:    newJSON,
		IPAddress:    ipAddress,
		RequestID:    requestID,
		PreviousHash: al.lastHash,
		// whole seconds survive every driver's datetime column
		Timestamp: al.now().UTC().Truncate(time.Second),
	}
	event.EventHash = generateEventHash(event)

	if err := al.db.Create(event).Error; err != nil {
		return fmt.Errorf("failed to create audit event: %w", err)
	}
	al.lastHash = event.EventHash
	return nil
}

// LogTemplateEvent records a change to a label template.
func (al *AuditLogger) LogTemplateEvent(eventType string, templateID uint, oldData, newData interface{}, ipAddress, requestID string) error {
	action := map[string]string{
		EventCreate: "template created",
		EventUpdate: "template updated",
		EventDelete: "template deleted",
	}[eventType]
	return al.LogEvent(eventType, ObjectLabelTemplate, strconv.FormatUint(uint64(templateID), 10),
		action, oldData, newData, ipAddress, requestID)
}

// VerifyChainIntegrity walks the chain in insertion order and recomputes
// every hash.
func (al *AuditLogger) VerifyChainIntegrity() (bool, error) {
	var events []models.AuditEvent
	if err := al.db.Order("id ASC").Find(&events).Error; err != nil {
		return false, fmt.Errorf("failed to retrieve audit events: %w", err)
	}

	previous := ""
	for i := range events {
		if events[i].PreviousHash != previous {
			return false, fmt.Errorf("chain integrity broken at event %d", events[i].ID)
		}
		if generateEventHash(&events[i]) != events[i].EventHash {
			return false, fmt.Errorf("event hash verification failed for event %d", events[i].ID)
		}
		previous = events[i].EventHash
	}
	return true, nil
}

// GetAuditTrail returns the events of one object, oldest first.
func (al *AuditLogger) GetAuditTrail(objectType, objectID string) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	if err := al.db.Where("object_type = ? AND object_id = ?", objectType, objectID).
		Order("id ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to get audit trail: %w", err)
	}
	return events, nil
}

func marshalValues(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to serialize audit values: %w", err)
	}
	return string(data), nil
}

func generateEventHash(event *models.AuditEvent) string {
	hashData := fmt.Sprintf("%s:%s:%s:%s:%s:%s:%s",
		event.EventType,
		event.ObjectType,
		event.ObjectID,
		event.Action,
		event.PreviousHash,
		event.Timestamp.UTC().Format(time.RFC3339),
		event.OldValues+"|"+event.NewValues,
	)
	hash := blake2b.Sum256([]byte(hashData))
	return hex.EncodeToString(hash[:])
}
