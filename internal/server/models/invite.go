package models

import "time"

// Invite is never deleted; only RedemptionCount changes after creation.
// Key: code.
type Invite struct {
	Code            string    `json:"code" dynamodbav:"code"`
	InvitorID       string    `json:"invitor_id" dynamodbav:"invitor_id"`
	RedemptionCount int64     `json:"invite_count" dynamodbav:"invite_count"`
	CreatedAt       time.Time `json:"created_at" dynamodbav:"created_at"`
}

// Recent reports whether the invite was created inside window before now.
func (i Invite) Recent(now time.Time, window time.Duration) bool {
	return now.Sub(i.CreatedAt) < window
}
