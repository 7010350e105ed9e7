package services

import (
	"errors"
	"fmt"
	"time"

	"footballshop/internal/models"
	"footballshop/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials is returned for any failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotAuthenticated is returned when a session token does not resolve
	// to an account.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// DefaultSessionLength matches a two week browser session.
const DefaultSessionLength = 14 * 24 * time.Hour

// AuthService handles registration, login and the session token to account
// lookup used by every handler that needs the current user.
type AuthService struct {
	userRepo      repositories.UserRepository
	sessionRepo   repositories.SessionRepository
	jwtSecret     []byte
	sessionLength time.Duration
	now           func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, sessionRepo repositories.SessionRepository, jwtSecret string, sessionLength time.Duration) *AuthService {
	if sessionLength <= 0 {
		sessionLength = DefaultSessionLength
	}
	return &AuthService{
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		jwtSecret:     []byte(jwtSecret),
		sessionLength: sessionLength,
		now:           time.Now,
	}
}

// RegisterUser registers a new user, hashing the plain-text password held in
// user.Password before saving.
func (s *AuthService) RegisterUser(user *models.User) error {
	if existingUser, err := s.userRepo.GetByUsername(user.Username); err == nil && existingUser != nil {
		return fmt.Errorf("username '%s': %w", user.Username, ErrUsernameTaken)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)

	if err := s.userRepo.Create(user); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

// LoginUser authenticates a user, opens a session and returns the signed
// session token.
func (s *AuthService) LoginUser(username, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := s.now()
	session := &models.Session{
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionLength),
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return "", nil, fmt.Errorf("failed to open session: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid":      session.Key,
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      session.ExpiresAt.Unix(),
		"iat":      now.Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, user, nil
}

// ValidateToken parses and validates a session token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// CurrentUser resolves a session token to its account. Every failure,
// including an empty token, yields ErrNotAuthenticated.
func (s *AuthService) CurrentUser(tokenString string) (*models.User, error) {
	if tokenString == "" {
		return nil, ErrNotAuthenticated
	}
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return nil, ErrNotAuthenticated
	}

	session, err := s.sessionRepo.GetByKey(sid)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}
	if session.Expired(s.now()) {
		return nil, fmt.Errorf("%w: session expired", ErrNotAuthenticated)
	}
	user := session.User
	return &user, nil
}

// Logout ends the session behind the token. Unknown or invalid tokens are
// ignored.
func (s *AuthService) Logout(tokenString string) error {
	if tokenString == "" {
		return nil
	}
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return nil
	}
	if err := s.sessionRepo.Delete(sid); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

// Username returns the username of the account with the given ID.
func (s *AuthService) Username(userID string) (string, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}
