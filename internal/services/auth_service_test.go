package services_test

import (
	"fmt"
	"testing"
	"time"

	"footballshop/internal/models"
	"footballshop/internal/repositories"
	"footballshop/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test_jwt_secret"

func TestAuthService_RegisterUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, new(MockSessionRepository), testJWTSecret, time.Hour)

	user := &models.User{Username: "testuser", Password: "password123"}

	mockRepo.On("GetByUsername", user.Username).Return(nil, fmt.Errorf("user with username testuser: %w", repositories.ErrUserNotFound)).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()

	err := authService.RegisterUser(user)
	assert.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
	mockRepo.AssertExpectations(t)

	// Username already taken
	mockRepo.On("GetByUsername", "testuser").Return(&models.User{ID: "1", Username: "testuser"}, nil).Once()
	err = authService.RegisterUser(&models.User{Username: "testuser", Password: "password123"})
	assert.ErrorIs(t, err, services.ErrUsernameTaken)
	assert.Contains(t, err.Error(), "username 'testuser'")
	mockRepo.AssertExpectations(t)
}

func TestAuthService_LoginUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	sessions := new(MockSessionRepository)
	authService := services.NewAuthService(mockRepo, sessions, testJWTSecret, time.Hour)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &models.User{ID: "user-123", Username: "testuser", Password: string(hashedPassword)}

	// Successful login opens a session and signs its key into the token.
	mockRepo.On("GetByUsername", user.Username).Return(user, nil).Once()
	sessions.On("Create", mock.AnythingOfType("*models.Session")).Run(func(args mock.Arguments) {
		args.Get(0).(*models.Session).Key = "session-1"
	}).Return(nil).Once()

	token, loggedIn, err := authService.LoginUser("testuser", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, loggedIn.ID)

	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	assert.Equal(t, "session-1", claims["sid"])
	assert.Equal(t, user.ID, claims["user_id"])
	assert.Equal(t, user.Username, claims["username"])

	// Wrong password
	mockRepo.On("GetByUsername", user.Username).Return(user, nil).Once()
	_, _, err = authService.LoginUser("testuser", "wrongpassword")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	// Unknown user gets the same generic error
	mockRepo.On("GetByUsername", "nonexistentuser").Return(nil, fmt.Errorf("user with username nonexistentuser: %w", repositories.ErrUserNotFound)).Once()
	_, _, err = authService.LoginUser("nonexistentuser", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	mockRepo.AssertExpectations(t)
	sessions.AssertExpectations(t)
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func TestAuthService_ValidateToken(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), new(MockSessionRepository), testJWTSecret, time.Hour)

	valid := signedToken(t, jwt.MapClaims{
		"sid":      "session-1",
		"username": "testuser",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	claims, err := authService.ValidateToken(valid)
	assert.NoError(t, err)
	assert.Equal(t, "session-1", claims["sid"])

	_, err = authService.ValidateToken("invalid.token.string")
	assert.ErrorContains(t, err, "invalid token")

	expired := signedToken(t, jwt.MapClaims{
		"sid": "session-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	_, err = authService.ValidateToken(expired)
	assert.ErrorContains(t, err, "invalid token")
}

func TestAuthService_CurrentUser(t *testing.T) {
	sessions := new(MockSessionRepository)
	authService := services.NewAuthService(new(MockUserRepository), sessions, testJWTSecret, time.Hour)
	user := models.User{ID: "user-123", Username: "testuser"}

	_, err := authService.CurrentUser("")
	assert.ErrorIs(t, err, services.ErrNotAuthenticated)

	token := signedToken(t, jwt.MapClaims{"sid": "session-1", "exp": time.Now().Add(time.Hour).Unix()})

	sessions.On("GetByKey", "session-1").Return(&models.Session{
		Key: "session-1", UserID: user.ID, User: user, ExpiresAt: time.Now().Add(time.Hour),
	}, nil).Once()
	current, err := authService.CurrentUser(token)
	require.NoError(t, err)
	assert.Equal(t, "testuser", current.Username)

	// Session row expired even though the token has not
	sessions.On("GetByKey", "session-1").Return(&models.Session{
		Key: "session-1", UserID: user.ID, User: user, ExpiresAt: time.Now().Add(-time.Minute),
	}, nil).Once()
	_, err = authService.CurrentUser(token)
	assert.ErrorIs(t, err, services.ErrNotAuthenticated)

	// Session deleted by logout
	sessions.On("GetByKey", "session-1").Return(nil, fmt.Errorf("session session-1: %w", repositories.ErrSessionNotFound)).Once()
	_, err = authService.CurrentUser(token)
	assert.ErrorIs(t, err, services.ErrNotAuthenticated)

	// Token signed with another secret
	forged, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sid": "session-1"}).SignedString([]byte("other"))
	_, err = authService.CurrentUser(forged)
	assert.ErrorIs(t, err, services.ErrNotAuthenticated)

	sessions.AssertExpectations(t)
}

func TestAuthService_Logout(t *testing.T) {
	sessions := new(MockSessionRepository)
	authService := services.NewAuthService(new(MockUserRepository), sessions, testJWTSecret, time.Hour)

	token := signedToken(t, jwt.MapClaims{"sid": "session-1", "exp": time.Now().Add(time.Hour).Unix()})
	sessions.On("Delete", "session-1").Return(nil).Once()
	assert.NoError(t, authService.Logout(token))

	// Anonymous and garbage tokens are ignored
	assert.NoError(t, authService.Logout(""))
	assert.NoError(t, authService.Logout("garbage"))
	sessions.AssertExpectations(t)
}

func TestAuthService_Username(t *testing.T) {
	users := new(MockUserRepository)
	authService := services.NewAuthService(users, new(MockSessionRepository), testJWTSecret, time.Hour)

	users.On("GetByID", "user-123").Return(&models.User{ID: "user-123", Username: "testuser"}, nil).Once()
	name, err := authService.Username("user-123")
	assert.NoError(t, err)
	assert.Equal(t, "testuser", name)

	users.On("GetByID", "nope").Return(nil, fmt.Errorf("user with ID nope: %w", repositories.ErrUserNotFound)).Once()
	_, err = authService.Username("nope")
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)
	users.AssertExpectations(t)
}
