package models

import (
	"encoding/json"
	"time"
)

type DuressState string

const (
	DuressNone      DuressState = "none"
	DuressActive    DuressState = "active"
	DuressCancelled DuressState = "cancelled"
)

// DuressRecord is the single current-state alert of a user.
// Key: user_id.
type DuressRecord struct {
	UserID         string          `json:"user_id" dynamodbav:"user_id"`
	DuressType     string          `json:"duress_type" dynamodbav:"duress_type"`
	Message        string          `json:"message" dynamodbav:"message"`
	Timestamp      time.Time       `json:"timestamp" dynamodbav:"timestamp"`
	State          DuressState     `json:"state" dynamodbav:"state"`
	Test           bool            `json:"test,omitempty" dynamodbav:"test,omitempty"`
	EvidenceKey    string          `json:"evidence_key,omitempty" dynamodbav:"evidence_key,omitempty"`
	AdditionalData json.RawMessage `json:"additional_data,omitempty" dynamodbav:"additional_data,omitempty"`
	CancelledAt    *time.Time      `json:"cancelled_at,omitempty" dynamodbav:"cancelled_at,omitempty"`
}

func (r *DuressRecord) Active() bool {
	return r != nil && r.State == DuressActive
}
