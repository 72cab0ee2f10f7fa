// Package sms sends and verifies one-time passcodes for customer phone
// verification on the QR ordering surface.
package sms

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"canteen-backend/internal/apperr"
)

const (
	codeDigits = 6
	codeTTL    = 5 * time.Minute
)

// Provider delivers the SMS. Implementations wrap a real SMS API; the
// log provider stands in where no gateway is configured.
type Provider interface {
	Send(ctx context.Context, phone, message string) error
}

// LogProvider writes the message to the process log instead of sending.
// The code itself is never included.
type LogProvider struct{}

func (LogProvider) Send(_ context.Context, phone, _ string) error {
	fmt.Printf("sms: would deliver otp to %s\n", maskPhone(phone))
	return nil
}

// OTPService issues and checks codes. Codes live in memory with a
// five-minute expiry; a verified or expired code cannot be reused.
type OTPService struct {
	provider Provider
	codes    *gocache.Cache
}

func NewOTPService(provider Provider) *OTPService {
	return &OTPService{
		provider: provider,
		codes:    gocache.New(codeTTL, time.Minute),
	}
}

// SendOTP generates a fresh code and delivers it. Resending replaces
// any outstanding code for the phone.
func (s *OTPService) SendOTP(ctx context.Context, phone string) error {
	if phone == "" {
		return apperr.New(apperr.Validation, "phone is required")
	}
	code, err := generateCode()
	if err != nil {
		return apperr.Wrap(apperr.Internal, "generate otp", err)
	}
	message := fmt.Sprintf("Your canteen verification code is %s. Valid for 5 minutes.", code)
	if err := s.provider.Send(ctx, phone, message); err != nil {
		return apperr.Wrap(apperr.Gateway, "send otp", err)
	}
	s.codes.Set(phone, code, codeTTL)
	return nil
}

// VerifyOTP checks and consumes the code.
func (s *OTPService) VerifyOTP(phone, code string) error {
	stored, ok := s.codes.Get(phone)
	if !ok {
		return apperr.New(apperr.Unauthorized, "code expired or never sent")
	}
	if stored.(string) != code {
		return apperr.New(apperr.Unauthorized, "incorrect code")
	}
	s.codes.Delete(phone)
	return nil
}

func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return "******" + phone[len(phone)-4:]
}
