package models

import "time"

// Follow is a directed edge: FollowerID follows FollowedID.
// Key: (follower_id, followed_id), so at most one edge exists per ordered pair.
type Follow struct {
	FollowerID string    `json:"follower_id" dynamodbav:"follower_id"`
	FollowedID string    `json:"followed_id" dynamodbav:"followed_id"`
	CreatedAt  time.Time `json:"created_at" dynamodbav:"created_at"`
}
