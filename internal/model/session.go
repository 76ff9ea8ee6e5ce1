package model

import "time"

// Session is one captcha session record. Challenge fields are present only
// while a challenge is outstanding and are cleared atomically when a
// verification succeeds.
type Session struct {
	ID               string     `json:"id"`
	ExpiresAt        time.Time  `json:"expiresAt"`
	CaptchaAnswer    string     `json:"-"`
	CaptchaImage     []byte     `json:"-"`
	CaptchaExpiresAt *time.Time `json:"captchaExpiresAt,omitempty"`
	Verified         bool       `json:"verified"`
	VerifiedAt       *time.Time `json:"verifiedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// HasCaptcha reports whether a challenge is outstanding and still valid at t.
func (s *Session) HasCaptcha(t time.Time) bool {
	return s.CaptchaAnswer != "" && s.CaptchaExpiresAt != nil && s.CaptchaExpiresAt.After(t)
}

// Expired reports whether the session itself has passed its expiry at t.
func (s *Session) Expired(t time.Time) bool {
	return !s.ExpiresAt.After(t)
}

// ClearCaptcha drops all outstanding challenge state.
func (s *Session) ClearCaptcha() {
	s.CaptchaAnswer = ""
	s.CaptchaImage = nil
	s.CaptchaExpiresAt = nil
}

// Status is the session status snapshot returned by the status endpoint.
type Status struct {
	Exists     bool `json:"exists"`
	Expired    bool `json:"expired"`
	Verified   bool `json:"verified"`
	HasCaptcha bool `json:"has_captcha"`
}

// VerifyResult is the outcome of an answer comparison. A mismatch is a
// normal result with Status "error", not an AppError.
type VerifyResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
