package models

import "time"

// OTPChallenge is a one-time passcode issued as a second login factor.
// A successful password login creates a challenge; verifying the code
// completes the login and yields the token pair.
type OTPChallenge struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Code      string    `json:"-" db:"code"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SendOTPRequest represents the request payload for (re)sending a code
type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyOTPRequest represents the request payload for code verification
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6"`
}
