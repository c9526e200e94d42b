package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kitchen_inventory_backend/internal/models"
)

// AuthRepository defines the interface for user account storage.
type AuthRepository interface {
	CreateUser(ctx context.Context, executor SQLExecutor, user *models.User, hashedPassword string) (int64, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, string, error) // Returns User, HashedPassword, Error
	FindUserByID(ctx context.Context, userID int64) (*models.User, error)
}

// authRepository implements the AuthRepository interface.
type authRepository struct {
	db *sql.DB
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

// CreateUser inserts a new user. A taken username surfaces as ErrDuplicateKey.
func (r *authRepository) CreateUser(ctx context.Context, executor SQLExecutor, user *models.User, hashedPassword string) (int64, error) {
	query := `INSERT INTO users (username, password_hash, role, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`

	currentTime := time.Now()
	var userID int64
	err := executor.QueryRowContext(ctx, query,
		user.Username,
		hashedPassword,
		string(user.Role),
		currentTime,
		currentTime,
	).Scan(&userID)
	if err != nil {
		return 0, wrapDBError(err, "creating user")
	}
	user.ID = userID
	user.CreatedAt = currentTime
	user.UpdatedAt = currentTime
	return userID, nil
}

// FindUserByUsername retrieves a user and their hashed password.
func (r *authRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, string, error) {
	query := `SELECT id, username, password_hash, role, created_at, updated_at FROM users WHERE username = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", wrapDBError(err, fmt.Sprintf("finding user by username %s", username))
	}
	hash := user.PasswordHash
	user.PasswordHash = ""
	return user, hash, nil
}

// FindUserByID retrieves a user profile without the password hash.
func (r *authRepository) FindUserByID(ctx context.Context, userID int64) (*models.User, error) {
	query := `SELECT id, username, password_hash, role, created_at, updated_at FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapDBError(err, fmt.Sprintf("finding user by ID %d", userID))
	}
	user.PasswordHash = ""
	return user, nil
}

func scanUser(row scanner) (*models.User, error) {
	user := &models.User{}
	var role string
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &role, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}
	user.Role = models.Role(role)
	return user, nil
}
