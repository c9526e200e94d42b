package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"kitchen_inventory_backend/internal/models"
	"kitchen_inventory_backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeAuthRepo struct {
	mu     sync.Mutex
	users  map[string]*models.User
	hashes map[string]string
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{users: map[string]*models.User{}, hashes: map[string]string{}}
}

func (r *fakeAuthRepo) CreateUser(_ context.Context, _ repositories.SQLExecutor, user *models.User, hash string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Username]; ok {
		return 0, fmt.Errorf("%w: creating user (constraint: users_username_key)", repositories.ErrDuplicateKey)
	}
	user.ID = int64(len(r.users) + 1)
	stored := *user
	r.users[user.Username] = &stored
	r.hashes[user.Username] = hash
	return user.ID, nil
}

func (r *fakeAuthRepo) FindUserByUsername(_ context.Context, username string) (*models.User, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[username]
	if !ok {
		return nil, "", repositories.ErrNotFound
	}
	copied := *user
	return &copied, r.hashes[username], nil
}

func (r *fakeAuthRepo) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

type stubTokens struct{ err error }

func (s stubTokens) GenerateAccessToken(userID int64, username string, role string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("token-%d-%s-%s", userID, username, role), nil
}

func newTestAuthService(repo *fakeAuthRepo, tokens TokenIssuer) AuthService {
	svc := NewAuthService(repo, newMemStore(), tokens).(*authService)
	svc.hashCost = bcrypt.MinCost
	return svc
}

func TestRegisterUser(t *testing.T) {
	admin := &models.Actor{ID: 1, Username: "root", Role: models.RoleAdmin}
	manager := &models.Actor{ID: 2, Username: "boss", Role: models.RoleManager}

	tests := []struct {
		name    string
		payload models.RegistrationPayload
		caller  *models.Actor
		wantErr error
	}{
		{"kitchen self sign-up", models.RegistrationPayload{Username: "cook", Password: "secret1", Role: "kitchen"}, nil, nil},
		{"role is case-insensitive", models.RegistrationPayload{Username: "mgr", Password: "secret1", Role: "Manager"}, nil, nil},
		{"admin by admin", models.RegistrationPayload{Username: "admin2", Password: "secret1", Role: "admin"}, admin, nil},
		{"admin by manager", models.RegistrationPayload{Username: "admin3", Password: "secret1", Role: "admin"}, manager, ErrAdminRequired},
		{"admin anonymously", models.RegistrationPayload{Username: "admin4", Password: "secret1", Role: "admin"}, nil, ErrAdminRequired},
		{"unknown role", models.RegistrationPayload{Username: "x", Password: "secret1", Role: "waiter"}, nil, ErrRoleNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeAuthRepo()
			user, err := newTestAuthService(repo, stubTokens{}).RegisterUser(context.Background(), tt.payload, tt.caller)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, repo.users)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, user.ID)
			assert.Empty(t, user.PasswordHash)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.hashes[tt.payload.Username]), []byte(tt.payload.Password)))
		})
	}
}

func TestRegisterUser_DuplicateUsername(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := newTestAuthService(repo, stubTokens{})
	payload := models.RegistrationPayload{Username: "cook", Password: "secret1", Role: "kitchen"}

	_, err := svc.RegisterUser(context.Background(), payload, nil)
	require.NoError(t, err)
	_, err = svc.RegisterUser(context.Background(), payload, nil)
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestLoginUser(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := newTestAuthService(repo, stubTokens{})
	_, err := svc.RegisterUser(context.Background(), models.RegistrationPayload{Username: "cook", Password: "secret1", Role: "kitchen"}, nil)
	require.NoError(t, err)

	resp, err := svc.LoginUser(context.Background(), models.Credentials{Username: "cook", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "token-1-cook-kitchen", resp.Token)
	assert.Equal(t, models.RoleKitchen, resp.User.Role)

	_, err = svc.LoginUser(context.Background(), models.Credentials{Username: "cook", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.LoginUser(context.Background(), models.Credentials{Username: "nobody", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUser_TokenFailure(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := newTestAuthService(repo, stubTokens{err: errors.New("boom")})
	_, err := svc.RegisterUser(context.Background(), models.RegistrationPayload{Username: "cook", Password: "secret1", Role: "kitchen"}, nil)
	require.NoError(t, err)

	_, err = svc.LoginUser(context.Background(), models.Credentials{Username: "cook", Password: "secret1"})
	assert.ErrorIs(t, err, ErrTokenGeneration)
}

func TestGetUserProfile_NotFound(t *testing.T) {
	_, err := newTestAuthService(newFakeAuthRepo(), stubTokens{}).GetUserProfile(context.Background(), 9)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
