package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/hostdeck/panel/backend/internal/config"
	"github.com/hostdeck/panel/backend/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrUserNotFound = errors.New("user not found")
)

// SessionDuration is the lifetime of tokens minted by SignSession.
const SessionDuration = 24 * time.Hour

// SessionClaims are the claims carried by a provider-issued session token.
type SessionClaims struct {
	OpenID      string `json:"open_id"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	LoginMethod string `json:"login_method,omitempty"`
	jwt.RegisteredClaims
}

// AuthService verifies HS256 session tokens and keeps the user table in sync
// with the identities they carry.
type AuthService struct {
	db     *gorm.DB
	secret []byte
	owner  string
	now    func() time.Time
}

func NewAuthService(db *gorm.DB, cfg config.Config) *AuthService {
	return &AuthService{db: db, secret: []byte(cfg.JWTSecret), owner: cfg.OwnerOpenID, now: time.Now}
}

// SignSession mints a token for the given identity. Used by the seed command
// and tests; production tokens come from the session provider.
func (s *AuthService) SignSession(openID, name, email, loginMethod string) (string, error) {
	now := s.now()
	claims := SessionClaims{
		OpenID:      openID,
		Name:        name,
		Email:       email,
		LoginMethod: loginMethod,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   openID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionDuration)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *AuthService) parse(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.OpenID == "" {
		claims.OpenID = claims.Subject
	}
	if claims.OpenID == "" {
		return nil, fmt.Errorf("%w: missing open_id", ErrInvalidToken)
	}
	return claims, nil
}

// VerifyToken validates token and upserts the user it names. The configured
// owner is always an admin; with no owner configured the first user is.
func (s *AuthService) VerifyToken(token string) (*models.User, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("open_id = ?", claims.OpenID).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = models.User{OpenID: claims.OpenID, Role: models.RoleUser}
			if s.owner == "" {
				var count int64
				if err := tx.Model(&models.User{}).Count(&count).Error; err != nil {
					return err
				}
				if count == 0 {
					user.Role = models.RoleAdmin
				}
			}
		case err != nil:
			return err
		}

		if s.owner != "" && claims.OpenID == s.owner {
			user.Role = models.RoleAdmin
		}
		if claims.Name != "" {
			user.Name = claims.Name
		}
		if claims.Email != "" {
			user.Email = claims.Email
		}
		if claims.LoginMethod != "" {
			user.LoginMethod = claims.LoginMethod
		}
		user.LastSignedIn = s.now()
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &user, nil
}

func (s *AuthService) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ListUsers returns every user, newest first.
func (s *AuthService) ListUsers() ([]models.User, error) {
	var users []models.User
	if err := s.db.Order("created_at desc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
