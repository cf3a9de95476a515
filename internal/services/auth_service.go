package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/teamtask-api/internal/auth"
	"github.com/yukikurage/teamtask-api/internal/constants"
	"github.com/yukikurage/teamtask-api/internal/email"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/repository"
	"github.com/yukikurage/teamtask-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var validate = validator.New()

// AuthSettings holds the deployment secrets consulted during registration
// and password reset.
type AuthSettings struct {
	AdminAccessKey  string
	LeaderAccessKey string
	FrontendURL     string
}

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenManager
	mailer   email.Mailer
	renderer *email.Renderer
	settings AuthSettings
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userRepo repository.UserRepository,
	tokens *auth.TokenManager,
	mailer email.Mailer,
	renderer *email.Renderer,
	settings AuthSettings,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		mailer:   mailer,
		renderer: renderer,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	Role        models.Role
	Domain      *models.Domain
	AccessKey   string
	PhoneNumber string
}

// Register validates role specific requirements, creates the user and issues a token.
func (s *AuthService) Register(input RegisterInput) (*models.User, string, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, "", ErrNameRequired
	}
	emailAddr, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, "", err
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, "", ErrPasswordTooShort
	}
	if input.Role == "" {
		input.Role = models.RoleEmployee
	}
	if !input.Role.Valid() {
		return nil, "", ErrInvalidRole
	}

	domain := input.Domain
	if domain != nil && *domain == "" {
		domain = nil
	}
	if input.Role.RequiresDomain() && domain == nil {
		return nil, "", ErrDomainRequired
	}
	if domain != nil && !domain.Valid() {
		return nil, "", ErrInvalidDomain
	}

	var accessKeyHash string
	if input.Role.RequiresAccessKey() {
		if input.AccessKey == "" {
			return nil, "", ErrAccessKeyRequired
		}
		if !s.matchesRegistrationKey(input.Role, input.AccessKey) {
			return nil, "", ErrInvalidAccessKey
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(input.AccessKey), bcrypt.DefaultCost)
		if err != nil {
			return nil, "", fmt.Errorf("failed to hash access key: %w", err)
		}
		accessKeyHash = string(hashed)
	}

	if _, err := s.userRepo.FindByEmail(emailAddr); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:          name,
		Email:         emailAddr,
		PasswordHash:  string(hashedPassword),
		Role:          input.Role,
		Domain:        domain,
		AccessKeyHash: accessKeyHash,
		PhoneNumber:   strings.TrimSpace(input.PhoneNumber),
		IsActive:      true,
	}

	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return user, token, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email     string
	Password  string
	AccessKey string
}

// Login verifies the password, then the access key for admins and leaders.
func (s *AuthService) Login(input LoginInput) (*models.User, string, error) {
	user, err := s.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", ErrInvalidCredentials
	}

	if user.Role.RequiresAccessKey() {
		if input.AccessKey == "" || user.AccessKeyHash == "" {
			return nil, "", ErrInvalidAccessKey
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.AccessKeyHash), []byte(input.AccessKey)); err != nil {
			return nil, "", ErrInvalidAccessKey
		}
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return user, token, nil
}

// ForgotPassword emails a reset link when the address is registered. It
// reports success either way so callers cannot probe for accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, emailAddr string) error {
	emailAddr, err := normalizeEmail(emailAddr)
	if err != nil {
		return err
	}

	user, err := s.userRepo.FindByEmail(emailAddr)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	if !user.IsActive {
		return nil
	}

	token, err := utils.GenerateToken(constants.ResetTokenBytes)
	if err != nil {
		return err
	}
	hash := utils.HashToken(token)
	expiresAt := s.now().Add(constants.ResetTokenTTL)
	user.ResetTokenHash = &hash
	user.ResetTokenExpiresAt = &expiresAt

	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	msg, err := s.renderer.Render(email.TemplatePasswordReset, user.Email, "Password Reset Request", map[string]interface{}{
		"Name":         user.Name,
		"ResetURL":     fmt.Sprintf("%s/reset-password/%s", strings.TrimRight(s.settings.FrontendURL, "/"), token),
		"ValidMinutes": int(constants.ResetTokenTTL.Minutes()),
	})
	if err != nil {
		return fmt.Errorf("failed to render reset email: %w", err)
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("failed to send password reset email",
			slog.Uint64("user_id", user.ID),
			slog.Any("error", err),
		)
	}
	return nil
}

// VerifyResetToken reports whether a reset token is still redeemable without consuming it.
func (s *AuthService) VerifyResetToken(token string) (*models.User, error) {
	if token == "" {
		return nil, ErrInvalidResetToken
	}
	user, err := s.userRepo.FindByResetTokenHash(utils.HashToken(token), s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidResetToken
		}
		return nil, fmt.Errorf("failed to find reset token: %w", err)
	}
	return user, nil
}

// ResetPassword redeems a reset token, sets the new password and clears the token.
func (s *AuthService) ResetPassword(token, password string) error {
	if len(password) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.VerifyResetToken(token)
	if err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = string(hashedPassword)
	user.ResetTokenHash = nil
	user.ResetTokenExpiresAt = nil
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// Authenticate resolves a bearer token to the current, active user.
func (s *AuthService) Authenticate(token string) (*models.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	return s.GetUser(userID)
}

func (s *AuthService) matchesRegistrationKey(role models.Role, key string) bool {
	var expected string
	switch role {
	case models.RoleAdmin:
		expected = s.settings.AdminAccessKey
	case models.RoleLeader:
		expected = s.settings.LeaderAccessKey
	}
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(key)) == 1
}

func normalizeEmail(value string) (string, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if err := validate.Var(value, "required,email"); err != nil {
		return "", ErrInvalidEmail
	}
	return value, nil
}
