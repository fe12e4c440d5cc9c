package run

import "time"

// Status classifies how a keyword ended up.
type Status string

const (
	StatusFound           Status = "found"
	StatusNotFound        Status = "not_found"
	StatusCaptchaSkipped  Status = "captcha_skipped"
	StatusCooldownSkipped Status = "cooldown_skipped"
	StatusError           Status = "error"
)

// Outcome is the immutable record of one processed keyword. Exactly one is
// produced per configured keyword, in keyword order, whatever happens.
type Outcome struct {
	Keyword  string    `json:"keyword"`
	Status   Status    `json:"status"`
	Position int       `json:"position,omitempty"` // 1-based, found only
	Clicked  bool      `json:"clicked"`
	Err      string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}
