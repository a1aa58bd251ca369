// Package models defines the records persisted by the record store.
//
// Every type carries both json tags (flat-file and postgres backends) and
// dynamodbav tags (DynamoDB backend); the two must stay in sync.
package models

import "time"

// User is created once at registration and never modified.
// Key: id.
type User struct {
	ID         string    `json:"id" dynamodbav:"id"`
	InviteCode string    `json:"invite_code" dynamodbav:"invite_code"`
	NormalPin  string    `json:"normal_pin" dynamodbav:"normal_pin"`
	DuressPin  string    `json:"duress_pin" dynamodbav:"duress_pin"`
	CreatedAt  time.Time `json:"created_at" dynamodbav:"created_at"`
}
