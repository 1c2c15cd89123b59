package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/citywatch/incident-api/internal/core/domain"
	"github.com/citywatch/incident-api/internal/core/ports"
)

const resetTokenTTL = time.Hour

// ResetThrottle limits how often a password reset may be requested for one
// email address (Redis-backed in production).
type ResetThrottle interface {
	Allow(ctx context.Context, email string) (bool, error)
}

// AuthService implements registration, login, password reset and session
// token issue/verify. Tokens are stateless HS256 JWTs; logout is client-side
// token discard only.
type AuthService struct {
	repo      ports.UserRepository
	mailer    ports.Mailer
	throttle  ResetThrottle
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
}

func NewAuthService(
	repo ports.UserRepository,
	mailer ports.Mailer,
	throttle ResetThrottle,
	jwtSecret string,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &AuthService{
		repo:      repo,
		mailer:    mailer,
		throttle:  throttle,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
	}
}

// normalize fixes the case policy explicitly: usernames and emails are
// stored and compared lowercased.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = normalize(username)
	email = normalize(email)
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("register: %w", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("username", created.Username).Msg("user registered")
	return created, nil
}

// Login returns the same opaque ErrInvalidCredentials for an unknown username
// and a wrong password so callers cannot enumerate accounts.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	username = normalize(username)
	if username == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if user.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// ExternalLogin converts a verified external-identity profile into a session
// token, creating or linking the local account as needed.
func (s *AuthService) ExternalLogin(ctx context.Context, profile ports.ExternalProfile) (string, *domain.User, error) {
	if profile.Subject == "" || normalize(profile.Email) == "" {
		return "", nil, fmt.Errorf("external login: %w", domain.ErrValidation)
	}

	user, err := s.repo.FindByGoogleID(ctx, profile.Subject)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return "", nil, err
	}

	if user == nil {
		// Link an existing account with the same email, or create a new one.
		user, err = s.repo.FindByEmail(ctx, normalize(profile.Email))
		switch {
		case err == nil:
			if linkErr := s.repo.LinkGoogleID(ctx, user.ID, profile.Subject); linkErr != nil {
				return "", nil, linkErr
			}
			user.GoogleID = profile.Subject
		case errors.Is(err, domain.ErrUserNotFound):
			user, err = s.createExternalUser(ctx, profile)
			if err != nil {
				return "", nil, err
			}
		default:
			return "", nil, err
		}
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}

	s.log.Info().Str("username", user.Username).Msg("external login")
	return token, user, nil
}

func (s *AuthService) createExternalUser(ctx context.Context, profile ports.ExternalProfile) (*domain.User, error) {
	username := normalize(strings.ReplaceAll(profile.Name, " ", ""))
	if username == "" {
		username = strings.SplitN(normalize(profile.Email), "@", 2)[0]
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:  username,
		Email:     normalize(profile.Email),
		GoogleID:  profile.Subject,
		Role:      domain.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.repo.Create(ctx, user)
	if errors.Is(err, domain.ErrUserExists) {
		// Display-name collision with an unrelated account: retry once with a
		// random suffix.
		suffix, randErr := randomHex(3)
		if randErr != nil {
			return nil, randErr
		}
		user.Username = username + suffix
		created, err = s.repo.Create(ctx, user)
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

// RequestPasswordReset always succeeds from the caller's point of view:
// unknown emails, throttled requests and mail failures are logged only, so
// the endpoint does not reveal which addresses have accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalize(email)
	if email == "" {
		return nil
	}

	if s.throttle != nil {
		allowed, err := s.throttle.Allow(ctx, email)
		if err != nil {
			s.log.Warn().Err(err).Msg("reset throttle check failed, proceeding")
		} else if !allowed {
			s.log.Debug().Str("email", email).Msg("password reset throttled")
			return nil
		}
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.log.Error().Err(err).Msg("password reset lookup failed")
		}
		return nil
	}

	token, err := randomHex(20)
	if err != nil {
		return err
	}

	expires := time.Now().UTC().Add(resetTokenTTL)
	if err := s.repo.SetResetToken(ctx, user.ID, hashToken(token), expires); err != nil {
		s.log.Error().Err(err).Msg("failed to store reset token")
		return nil
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		s.log.Error().Err(err).Str("email", user.Email).Msg("failed to send reset email")
		return nil
	}

	s.log.Info().Str("username", user.Username).Msg("password reset issued")
	return nil
}

// ResetPassword consumes a single-use reset token.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return domain.ErrInvalidResetToken
	}

	user, err := s.repo.FindByResetToken(ctx, hashToken(token), time.Now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidResetToken
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	// UpdatePassword also clears the token, making it single use.
	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}

	s.log.Info().Str("username", user.Username).Msg("password reset completed")
	return nil
}

func (s *AuthService) issueToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"role":     user.Role,
		"exp":      time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

// VerifyToken validates signature and expiry and returns the embedded claims.
func (s *AuthService) VerifyToken(token string) (*ports.Claims, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrUnauthenticated
	}
	if !tkn.Valid {
		return nil, domain.ErrUnauthenticated
	}

	sub, _ := claims["sub"].(string)
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	if username == "" || role == "" {
		return nil, domain.ErrUnauthenticated
	}

	return &ports.Claims{UserID: sub, Username: username, Role: role}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
