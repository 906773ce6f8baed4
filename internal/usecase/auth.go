package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/mahidhar9542/mortgage-app/pkg/logging"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	// bcrypt rejects longer input.
	maxPasswordLength = 72
	resetTokenTTL     = time.Hour
)

func passwordProblem(password string) string {
	switch {
	case len(password) < minPasswordLength:
		return "Password must be at least 8 characters"
	case len(password) > maxPasswordLength:
		return "Password cannot exceed 72 bytes"
	}
	return ""
}

type AuthUseCase struct {
	Users    entity.UserRepositoryInterface
	Tokens   TokenIssuer
	Notifier *NotificationDispatcher
	Logger   *logging.Logger
	AppURL   string
	cost     int
	now      func() time.Time
}

func NewAuthUseCase(
	users entity.UserRepositoryInterface,
	tokens TokenIssuer,
	notifier *NotificationDispatcher,
	logger *logging.Logger,
	appURL string,
) *AuthUseCase {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &AuthUseCase{
		Users:    users,
		Tokens:   tokens,
		Notifier: notifier,
		Logger:   logger,
		AppURL:   strings.TrimRight(appURL, "/"),
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// SignUp registers a borrower account and signs it in.
func (uc *AuthUseCase) SignUp(ctx context.Context, in SignUpInput) (*AuthOutput, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	var errs []ValidationError
	validateEmail(&errs, email)
	requiredMax(&errs, "firstName", "First name", strings.TrimSpace(in.FirstName), 50)
	requiredMax(&errs, "lastName", "Last name", strings.TrimSpace(in.LastName), 50)
	if msg := passwordProblem(in.Password); msg != "" {
		errs = append(errs, ValidationError{Field: "password", Message: msg})
	}
	if len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), uc.cost)
	if err != nil {
		return nil, &TechnicalError{Code: CodeUpstream, Message: "failed to hash password", Err: err}
	}

	user := entity.NewUser(email, string(hash), in.FirstName, in.LastName, in.Phone, entity.RoleBorrower)
	if err := uc.Users.Create(ctx, user); err != nil {
		if errors.Is(err, entity.ErrEmailAlreadyExists) {
			return nil, &DomainError{Code: CodeEmailTaken, Message: "User already exists"}
		}
		return nil, dbError("failed to create user", err)
	}

	uc.Logger.Infow("user registered", "user_id", user.ID)
	return uc.issue(user)
}

// SignIn checks the credentials. Unknown email and wrong password look the same to the caller.
func (uc *AuthUseCase) SignIn(ctx context.Context, in SignInInput) (*AuthOutput, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, fieldError("email", "Please provide an email and password")
	}

	user, err := uc.Users.FindByEmail(ctx, email)
	if errors.Is(err, entity.ErrUserNotFound) {
		return nil, invalidCredentials()
	}
	if err != nil {
		return nil, dbError("failed to load user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		return nil, invalidCredentials()
	}
	return uc.issue(user)
}

func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*entity.User, error) {
	user, err := uc.Users.FindByID(ctx, userID)
	if errors.Is(err, entity.ErrUserNotFound) {
		return nil, &DomainError{Code: CodeUnauthorized, Message: "Not authorized to access this route"}
	}
	if err != nil {
		return nil, dbError("failed to load user", err)
	}
	return user, nil
}

// ForgotPassword emails a one-hour reset link. It reports success for unknown addresses too.
func (uc *AuthUseCase) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !IsValidEmail(email) {
		return fieldError("email", "Please enter a valid email")
	}

	user, err := uc.Users.FindByEmail(ctx, email)
	if errors.Is(err, entity.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return dbError("failed to load user", err)
	}

	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return &TechnicalError{Code: CodeUpstream, Message: "failed to generate reset token", Err: err}
	}
	token := hex.EncodeToString(raw)

	if err := uc.Users.SetResetToken(ctx, user.ID, hashToken(token), uc.now().Add(resetTokenTTL)); err != nil {
		return dbError("failed to store reset token", err)
	}

	if uc.Notifier != nil {
		uc.Notifier.Send(ctx, entity.TemplatePasswordReset, user.Email, "Password Reset Request", "", map[string]any{
			"firstName": user.FirstName,
			"resetUrl":  uc.AppURL + "/reset-password/" + token,
		})
	}
	return nil
}

// ResetPassword swaps the password for the holder of a valid reset token and signs them in.
func (uc *AuthUseCase) ResetPassword(ctx context.Context, token, password string) (*AuthOutput, error) {
	if msg := passwordProblem(password); msg != "" {
		return nil, fieldError("password", msg)
	}

	user, err := uc.Users.FindByResetToken(ctx, hashToken(token), uc.now())
	if errors.Is(err, entity.ErrUserNotFound) {
		return nil, fieldError("token", "Invalid or expired token")
	}
	if err != nil {
		return nil, dbError("failed to load user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), uc.cost)
	if err != nil {
		return nil, &TechnicalError{Code: CodeUpstream, Message: "failed to hash password", Err: err}
	}
	if err := uc.Users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return nil, dbError("failed to update password", err)
	}
	user.PasswordHash = string(hash)

	uc.Logger.Infow("password reset", "user_id", user.ID)
	return uc.issue(user)
}

func (uc *AuthUseCase) issue(user *entity.User) (*AuthOutput, error) {
	token, expires, err := uc.Tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, &TechnicalError{Code: CodeUpstream, Message: "failed to sign token", Err: err}
	}
	return &AuthOutput{Token: token, ExpiresAt: expires, User: user}, nil
}

func invalidCredentials() *DomainError {
	return &DomainError{Code: CodeInvalidCredentials, Message: "Invalid credentials"}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
