package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/waste3d/courseplatform-api/internal/domain"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/email"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/repository"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/security"
	"go.uber.org/zap"
)

const otpResendWindow = time.Minute

const (
	ResetChangePassword = "change_password"
	ResetForgotPassword = "forgot_password"
)

type AuthUseCase struct {
	users    *repository.UserRepository
	otps     *repository.OTPRepository
	hasher   *security.PasswordHasher
	tokens   *security.TokenManager
	mailer   Mailer
	throttle SendThrottle
	log      *zap.Logger
	now      func() time.Time
}

// NewAuthUseCase wires the auth flows. throttle may be nil.
func NewAuthUseCase(
	users *repository.UserRepository,
	otps *repository.OTPRepository,
	hasher *security.PasswordHasher,
	tokens *security.TokenManager,
	mailer Mailer,
	throttle SendThrottle,
	log *zap.Logger,
) *AuthUseCase {
	return &AuthUseCase{
		users:    users,
		otps:     otps,
		hasher:   hasher,
		tokens:   tokens,
		mailer:   mailer,
		throttle: throttle,
		log:      log,
		now:      time.Now,
	}
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates an unverified account and returns an access token for it.
func (uc *AuthUseCase) Register(ctx context.Context, in RegisterInput) (string, error) {
	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		return "", err
	}
	user, err := uc.users.RegisterUnverified(ctx, in.Email, hash, in.FirstName, in.LastName)
	if err != nil {
		return "", err
	}
	return uc.tokens.Generate(user, false)
}

func (uc *AuthUseCase) SignIn(ctx context.Context, email, password string) (string, error) {
	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if !user.IsVerified {
		return "", domain.ErrEmailNotVerified
	}
	if err := uc.hasher.Compare(user.Password, password); err != nil {
		return "", domain.ErrInvalidCredentials
	}
	return uc.tokens.Generate(user, false)
}

// SendOTP mails a fresh code for the purpose and stores its hash, replacing any earlier code.
func (uc *AuthUseCase) SendOTP(ctx context.Context, emailAddr string, otpType domain.OTPType) error {
	user, err := uc.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}

	throttleKey := emailAddr + ":" + string(otpType)
	if uc.throttle != nil {
		ok, err := uc.throttle.Allow(ctx, throttleKey, otpResendWindow)
		if err != nil {
			uc.log.Warn("otp throttle unavailable", zap.Error(err))
		} else if !ok {
			return domain.ErrOTPThrottled
		}
	}

	code, err := security.GenerateNumericCode(domain.OTPLength)
	if err != nil {
		return err
	}
	hash, err := uc.hasher.Hash(code)
	if err != nil {
		return err
	}

	subject, body, err := email.RenderOTP(otpTitle(otpType), code, int(domain.OTPTTL/time.Minute))
	if err != nil {
		return err
	}
	if err := uc.mailer.Send(ctx, user.Email, subject, body); err != nil {
		uc.log.Error("send otp", zap.String("email", user.Email), zap.Error(err))
		if uc.throttle != nil {
			if relErr := uc.throttle.Release(ctx, throttleKey); relErr != nil {
				uc.log.Warn("release otp throttle", zap.Error(relErr))
			}
		}
		return fmt.Errorf("%w: %v", domain.ErrMailDelivery, err)
	}

	return uc.otps.Save(ctx, &domain.OTPVerification{
		UserID:    user.ID,
		OTPType:   otpType,
		OTP:       hash,
		ExpiresAt: uc.now().Add(domain.OTPTTL),
	})
}

func otpTitle(t domain.OTPType) string {
	if t == domain.OTPForgotPassword {
		return "Reset your password"
	}
	return "Verify your email"
}

// VerifyOTP consumes a code. Expiry is checked before the code itself, so an expired code is
// rejected even when it matches.
func (uc *AuthUseCase) VerifyOTP(ctx context.Context, emailAddr, code string, otpType domain.OTPType) (string, error) {
	user, err := uc.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		return "", err
	}
	otp, err := uc.otps.Find(ctx, user.ID, otpType)
	if err != nil {
		return "", err
	}
	if otp.Expired(uc.now()) {
		return "", domain.ErrOTPExpired
	}
	if err := uc.hasher.Compare(otp.OTP, code); err != nil {
		return "", domain.ErrOTPMismatch
	}

	if otpType == domain.OTPEmailVerification && !user.IsVerified {
		if err := uc.users.MarkVerified(ctx, user.ID); err != nil {
			return "", err
		}
		user.IsVerified = true
	}
	if err := uc.otps.Delete(ctx, otp.ID); err != nil {
		return "", err
	}
	return uc.tokens.Generate(user, false)
}

type ResetPasswordInput struct {
	RequestType string
	OldPassword string
	NewPassword string
}

// ResetPassword only serves verified accounts; an unverified one is reported as not found.
func (uc *AuthUseCase) ResetPassword(ctx context.Context, caller *domain.Principal, in ResetPasswordInput) error {
	user, err := uc.users.GetByID(ctx, caller.ID)
	if err != nil {
		return err
	}
	if !user.IsVerified {
		return domain.ErrUserNotFound
	}

	if in.RequestType == ResetChangePassword {
		if err := uc.hasher.Compare(user.Password, in.OldPassword); err != nil {
			return domain.ErrOldPasswordInvalid
		}
		if in.OldPassword == in.NewPassword {
			return domain.ErrPasswordUnchanged
		}
	}

	hash, err := uc.hasher.Hash(in.NewPassword)
	if err != nil {
		return err
	}
	return uc.users.UpdatePassword(ctx, user.ID, hash)
}

// VerifyToken confirms the caller still exists. With revalidate it also issues a new token
// carrying the profile name and image.
func (uc *AuthUseCase) VerifyToken(ctx context.Context, caller *domain.Principal, revalidate bool) (*domain.User, string, error) {
	user, err := uc.users.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, "", err
	}
	if !revalidate {
		return user, "", nil
	}
	token, err := uc.tokens.Generate(user, true)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Authenticate resolves a bearer token to a caller whose account still matches the token.
func (uc *AuthUseCase) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	p, err := uc.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	user, err := uc.users.GetByID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, security.ErrInvalidToken
		}
		return nil, err
	}
	if user.Email != p.Email {
		return nil, security.ErrInvalidToken
	}
	return &domain.Principal{ID: user.ID, Email: user.Email, Role: user.Role, Verified: user.IsVerified}, nil
}
