package common

import "time"

const (
	// InviteLimit is the number of invites a user may issue inside InviteWindow.
	InviteLimit = 5
	// InviteWindow is the rolling window measured backwards from now.
	InviteWindow = 168 * time.Hour

	// TestModeDuration is how long a test mode stays live once enabled.
	TestModeDuration = 5 * time.Minute
)
