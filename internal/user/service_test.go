package user

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"quickcourt/internal/apperr"
	"quickcourt/internal/auth"
	"quickcourt/internal/otp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// MockRepository is a mock implementation of Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, name, email, passwordHash, role, avatar string, verified bool) (*User, error) {
	args := m.Called(ctx, name, email, passwordHash, role, avatar, verified)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id int) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

type MockPendingStore struct {
	mock.Mock
}

func (m *MockPendingStore) Put(ctx context.Context, p otp.PendingSignup, code string) error {
	return m.Called(ctx, p, code).Error(0)
}

func (m *MockPendingStore) Verify(ctx context.Context, email, code string) (*otp.PendingSignup, error) {
	args := m.Called(ctx, email, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*otp.PendingSignup), args.Error(1)
}

type fakeMailer struct {
	to, code string
	err      error
}

func (f *fakeMailer) SendOTP(_ context.Context, email, _, code string, _ time.Duration) error {
	f.to, f.code = email, code
	return f.err
}

type memoryTokens struct {
	revoked map[string]time.Duration
}

func (m *memoryTokens) Revoke(_ context.Context, id string, ttl time.Duration) error {
	m.revoked[id] = ttl
	return nil
}

func (m *memoryTokens) IsRevoked(_ context.Context, id string) (bool, error) {
	_, ok := m.revoked[id]
	return ok, nil
}

func newTestService(repo Repository, pending PendingStore, mailer CodeMailer, tokens auth.TokenStore) *service {
	return NewService(repo, testSecret, pending, mailer, tokens).(*service)
}

func TestService_Register(t *testing.T) {
	tests := []struct {
		name          string
		req           RegisterRequest
		setupMock     func(*MockRepository)
		expectError   bool
		expectedError error
	}{
		{
			name: "successful registration defaults to user role",
			req: RegisterRequest{
				Name:     "Test User",
				Email:    "test@example.com",
				Password: "password123",
			},
			setupMock: func(m *MockRepository) {
				m.On("EmailExists", mock.Anything, "test@example.com").Return(false, nil)
				m.On("Create", mock.Anything, "Test User", "test@example.com", mock.Anything, auth.RoleUser, "", false).Return(&User{
					ID:    1,
					Name:  "Test User",
					Email: "test@example.com",
					Role:  auth.RoleUser,
				}, nil)
			},
		},
		{
			name: "facility owner signup",
			req: RegisterRequest{
				Name:     "Owner",
				Email:    "owner@example.com",
				Password: "password123",
				Role:     auth.RoleFacilityOwner,
			},
			setupMock: func(m *MockRepository) {
				m.On("EmailExists", mock.Anything, "owner@example.com").Return(false, nil)
				m.On("Create", mock.Anything, "Owner", "owner@example.com", mock.Anything, auth.RoleFacilityOwner, "", false).Return(&User{
					ID:    2,
					Email: "owner@example.com",
					Role:  auth.RoleFacilityOwner,
				}, nil)
			},
		},
		{
			name: "email already exists",
			req: RegisterRequest{
				Name:     "Test User",
				Email:    "existing@example.com",
				Password: "password123",
			},
			setupMock: func(m *MockRepository) {
				m.On("EmailExists", mock.Anything, "existing@example.com").Return(true, nil)
			},
			expectError:   true,
			expectedError: ErrEmailExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockRepository)
			tt.setupMock(mockRepo)

			svc := newTestService(mockRepo, nil, nil, nil)
			user, accessToken, refreshToken, err := svc.Register(context.Background(), tt.req)

			if tt.expectError {
				assert.Error(t, err)
				if tt.expectedError != nil {
					assert.Equal(t, tt.expectedError, err)
				}
				assert.Nil(t, user)
				assert.Empty(t, accessToken)
				assert.Empty(t, refreshToken)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, user)
				assert.NotEmpty(t, accessToken)
				assert.NotEmpty(t, refreshToken)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestService_Login(t *testing.T) {
	passwordHash, _ := auth.HashPassword("password123")

	tests := []struct {
		name          string
		req           LoginRequest
		setupMock     func(*MockRepository)
		expectedError error
	}{
		{
			name: "successful login",
			req:  LoginRequest{Email: "test@example.com", Password: "password123"},
			setupMock: func(m *MockRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(&User{
					ID:           1,
					Email:        "test@example.com",
					PasswordHash: passwordHash,
					Role:         auth.RoleUser,
				}, nil)
			},
		},
		{
			name: "wrong password",
			req:  LoginRequest{Email: "test@example.com", Password: "nope"},
			setupMock: func(m *MockRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(&User{
					ID:           1,
					PasswordHash: passwordHash,
				}, nil)
			},
			expectedError: ErrInvalidCredentials,
		},
		{
			name: "user not found",
			req:  LoginRequest{Email: "notfound@example.com", Password: "password123"},
			setupMock: func(m *MockRepository) {
				m.On("FindByEmail", mock.Anything, "notfound@example.com").Return(nil, sql.ErrNoRows)
			},
			expectedError: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockRepository)
			tt.setupMock(mockRepo)

			svc := newTestService(mockRepo, nil, nil, nil)
			user, accessToken, _, err := svc.Login(context.Background(), tt.req)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, accessToken)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestService_GetByID(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("FindByID", mock.Anything, 1).Return(&User{ID: 1, Name: "Test User"}, nil)
	mockRepo.On("FindByID", mock.Anything, 2).Return(nil, sql.ErrNoRows)

	svc := newTestService(mockRepo, nil, nil, nil)

	user, err := svc.GetByID(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, 1, user.ID)

	_, err = svc.GetByID(context.Background(), 2)
	assert.True(t, apperr.IsNotFound(err))
	mockRepo.AssertExpectations(t)
}

func TestService_RequestSignupOTP(t *testing.T) {
	t.Run("stores pending signup and mails the code", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("EmailExists", mock.Anything, "new@example.com").Return(false, nil)

		store := new(MockPendingStore)
		var savedCode string
		store.On("Put", mock.Anything, mock.MatchedBy(func(p otp.PendingSignup) bool {
			return p.Email == "new@example.com" && p.Role == auth.RoleUser &&
				auth.CheckPassword(p.PasswordHash, "password123")
		}), mock.AnythingOfType("string")).
			Run(func(args mock.Arguments) { savedCode = args.String(2) }).
			Return(nil)

		mailer := &fakeMailer{}
		svc := newTestService(mockRepo, store, mailer, nil)

		err := svc.RequestSignupOTP(context.Background(), RegisterRequest{
			Name: "New", Email: "new@example.com", Password: "password123",
		})
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", mailer.to)
		assert.Len(t, mailer.code, otp.CodeLength)
		assert.Equal(t, savedCode, mailer.code)
		store.AssertExpectations(t)
	})

	t.Run("existing email", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("EmailExists", mock.Anything, "old@example.com").Return(true, nil)

		svc := newTestService(mockRepo, new(MockPendingStore), &fakeMailer{}, nil)
		err := svc.RequestSignupOTP(context.Background(), RegisterRequest{Email: "old@example.com", Password: "x"})
		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("mail failure surfaces", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("EmailExists", mock.Anything, "new@example.com").Return(false, nil)
		store := new(MockPendingStore)
		store.On("Put", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		svc := newTestService(mockRepo, store, &fakeMailer{err: errors.New("redis down")}, nil)
		err := svc.RequestSignupOTP(context.Background(), RegisterRequest{Email: "new@example.com", Password: "password123"})
		assert.Error(t, err)
	})
}

func TestService_VerifySignupOTP(t *testing.T) {
	pending := &otp.PendingSignup{Name: "New", Email: "new@example.com", PasswordHash: "hash", Role: auth.RoleUser}

	t.Run("creates a verified user", func(t *testing.T) {
		store := new(MockPendingStore)
		store.On("Verify", mock.Anything, "new@example.com", "123456").Return(pending, nil)
		mockRepo := new(MockRepository)
		mockRepo.On("Create", mock.Anything, "New", "new@example.com", "hash", auth.RoleUser, "", true).
			Return(&User{ID: 9, Email: "new@example.com", Role: auth.RoleUser, IsVerified: true}, nil)

		svc := newTestService(mockRepo, store, nil, nil)
		user, access, refresh, err := svc.VerifySignupOTP(context.Background(), VerifyOTPRequest{Email: "new@example.com", OTP: "123456"})

		require.NoError(t, err)
		assert.True(t, user.IsVerified)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)
		mockRepo.AssertExpectations(t)
	})

	for _, storeErr := range []error{otp.ErrExpired, otp.ErrInvalidCode, otp.ErrTooManyAttempts} {
		t.Run(storeErr.Error(), func(t *testing.T) {
			store := new(MockPendingStore)
			store.On("Verify", mock.Anything, "new@example.com", "000000").Return(nil, storeErr)

			svc := newTestService(new(MockRepository), store, nil, nil)
			_, _, _, err := svc.VerifySignupOTP(context.Background(), VerifyOTPRequest{Email: "new@example.com", OTP: "000000"})
			assert.True(t, apperr.IsValidation(err))
		})
	}
}

func TestService_RefreshAndLogout(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("FindByID", mock.Anything, 4).Return(&User{ID: 4, Email: "u@example.com", Role: auth.RoleUser}, nil)

	tokens := &memoryTokens{revoked: map[string]time.Duration{}}
	svc := newTestService(mockRepo, nil, nil, tokens)
	ctx := context.Background()

	access, refresh, err := auth.GenerateTokens(4, "u@example.com", auth.RoleUser, testSecret)
	require.NoError(t, err)

	newAccess, user, err := svc.RefreshToken(ctx, refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, newAccess)
	assert.Equal(t, 4, user.ID)

	_, _, err = svc.RefreshToken(ctx, access)
	assert.Equal(t, ErrInvalidRefresh, err)

	accessClaims, err := auth.ValidateToken(access, testSecret)
	require.NoError(t, err)
	identity := auth.Identity{
		UserID:    4,
		TokenID:   accessClaims.ID,
		ExpiresAt: accessClaims.ExpiresAt.Time,
	}
	require.NoError(t, svc.Logout(ctx, identity, refresh))

	assert.Contains(t, tokens.revoked, accessClaims.ID)
	assert.Len(t, tokens.revoked, 2)

	_, _, err = svc.RefreshToken(ctx, refresh)
	assert.Equal(t, ErrInvalidRefresh, err)
}
