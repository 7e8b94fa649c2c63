package model

import "time"

// ResendRequest tracks how often a verification code was mailed again to
// one address within the current day
type ResendRequest struct {
	Email       string
	WindowStart time.Time
	LastResend  time.Time
	Cooldown    time.Time // no resend before this
	Count       int
	Blocked     bool // too many resends, blocked until the window ends
}
