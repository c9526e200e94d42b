package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kitchen_inventory_backend/internal/models"
	"kitchen_inventory_backend/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors ---
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameExists     = errors.New("username already exists")
	ErrRoleNotFound       = errors.New("specified role not found")
	ErrAdminRequired      = errors.New("only an admin can register another admin")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	GenerateAccessToken(userID int64, username string, role string) (string, error)
}

// AuthResponse DTO
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// --- AuthService Interface ---
type AuthService interface {
	RegisterUser(ctx context.Context, req models.RegistrationPayload, caller *models.Actor) (*models.User, error)
	LoginUser(ctx context.Context, req models.Credentials) (*AuthResponse, error)
	GetUserProfile(ctx context.Context, userID int64) (*models.User, error)
}

// --- authService Implementation ---
type authService struct {
	authRepo repositories.AuthRepository
	txRunner repositories.TxRunner
	tokens   TokenIssuer
	hashCost int
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(authRepo repositories.AuthRepository, txRunner repositories.TxRunner, tokens TokenIssuer) AuthService {
	return &authService{
		authRepo: authRepo,
		txRunner: txRunner,
		tokens:   tokens,
		hashCost: bcrypt.DefaultCost,
	}
}

// RegisterUser creates an account. Registering an admin needs an admin caller.
func (s *authService) RegisterUser(ctx context.Context, req models.RegistrationPayload, caller *models.Actor) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if !models.IsValidRole(req.Role) {
		return nil, fmt.Errorf("%w: '%s'", ErrRoleNotFound, req.Role)
	}
	role := models.Role(strings.ToLower(req.Role))
	if role == models.RoleAdmin && (caller == nil || caller.Role != models.RoleAdmin) {
		return nil, ErrAdminRequired
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{Username: username, Role: role}
	err = s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		_, err := s.authRepo.CreateUser(ctx, exec, user, string(hashedPasswordBytes))
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: '%s'", ErrUsernameExists, username)
		}
		return nil, fmt.Errorf("failed to register user: %w", classifyStoreError(err))
	}
	return user, nil
}

// LoginUser handles user login and token generation.
func (s *authService) LoginUser(ctx context.Context, req models.Credentials) (*AuthResponse, error) {
	user, storedHashedPassword, err := s.authRepo.FindUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", classifyStoreError(err))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHashedPassword), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenGeneration, err)
	}
	return &AuthResponse{Token: token, User: user}, nil
}

// GetUserProfile retrieves a user's profile by their ID.
func (s *authService) GetUserProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user profile: %w", classifyStoreError(err))
	}
	return user, nil
}
