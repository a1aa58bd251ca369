package models

// UserPreferences controls duress broadcasting. Key: user_id.
type UserPreferences struct {
	UserID                  string `json:"user_id" dynamodbav:"user_id"`
	BroadcastDuress         bool   `json:"broadcast_duress" dynamodbav:"broadcast_duress"`
	ReceiveDuressBroadcasts bool   `json:"receive_duress_broadcasts" dynamodbav:"receive_duress_broadcasts"`
}

// DefaultPreferences is what a user without a stored record gets.
func DefaultPreferences(userID string) *UserPreferences {
	return &UserPreferences{UserID: userID, BroadcastDuress: true, ReceiveDuressBroadcasts: true}
}
