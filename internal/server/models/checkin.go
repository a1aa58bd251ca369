package models

import "time"

// Checkin is the last known location of a user. Key: user_id.
type Checkin struct {
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	Location  string    `json:"location" dynamodbav:"location"`
	Timestamp time.Time `json:"timestamp" dynamodbav:"timestamp"`
}

// TestMode marks a window during which triggered alerts are drills.
// Key: user_id.
type TestMode struct {
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	ExpiresAt time.Time `json:"expires_at" dynamodbav:"expires_at"`
}

func (m *TestMode) Live(now time.Time) bool {
	return m != nil && now.Before(m.ExpiresAt)
}

// MapInfo is one row of the map view: a followed user's last check-in and
// whether they are visibly under duress.
type MapInfo struct {
	UserID      string     `json:"user_id"`
	Location    string     `json:"location"`
	Duress      bool       `json:"duress"`
	DuressType  string     `json:"duress_type,omitempty"`
	LastCheckin *time.Time `json:"last_checkin,omitempty"`
}
