package models

import "time"

// AuditEvent is one link of the append-only change log. Each event carries
// the hash of its predecessor so that edits to history are detectable.
type AuditEvent struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	EventType    string    `json:"event_type" gorm:"not null;index"`  // CREATE, UPDATE, DELETE
	ObjectType   string    `json:"object_type" gorm:"not null;index"` // label_template, ...
	ObjectID     string    `json:"object_id" gorm:"not null;index"`
	Action       string    `json:"action" gorm:"not null"`
	OldValues    string    `json:"old_values" gorm:"type:text"`
	NewValues    string    `json:"new_values" gorm:"type:text"`
	IPAddress    string    `json:"ip_address"`
	RequestID    string    `json:"request_id" gorm:"index"`
	EventHash    string    `json:"event_hash" gorm:"not null;uniqueIndex;size:64"`
	PreviousHash string    `json:"previous_hash" gorm:"index;size:64"`
	Timestamp    time.Time `json:"timestamp" gorm:"not null;index"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
