package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tobiasmaugus/vendas-api/internal/apperror"
	"github.com/tobiasmaugus/vendas-api/internal/auth"
	"github.com/tobiasmaugus/vendas-api/internal/jwtutil"
	"github.com/tobiasmaugus/vendas-api/internal/metrics"
	"github.com/tobiasmaugus/vendas-api/internal/model"
)

// AuthService exchanges a verified Google identity for a local user record
// and a signed session credential.
type AuthService struct {
	db       *gorm.DB
	verifier *auth.GoogleVerifier
	tokens   *jwtutil.JWTUtil
}

// NewAuthService creates an AuthService backed by the shared database handle
func NewAuthService(db *gorm.DB, verifier *auth.GoogleVerifier, tokens *jwtutil.JWTUtil) *AuthService {
	return &AuthService{db: db, verifier: verifier, tokens: tokens}
}

// LoginWithGoogle verifies the provider token, upserts the local user and
// issues a session credential.
//
// User matching is deliberately stricter than a plain email match: the row is
// found by google_id, or by email only when that row has never been linked to
// a Google subject. Two distinct Google identities sharing an email address
// therefore map to two distinct users instead of silently merging.
func (s *AuthService) LoginWithGoogle(ctx context.Context, idToken string) (string, *model.User, error) {
	claims, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		metrics.RecordAuthError("invalid_assertion")
		return "", nil, apperror.InvalidAssertion("invalid Google token")
	}

	defer metrics.TrackDBOperation("transaction")(time.Now())

	var user model.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("google_id = ?", claims.Sub).First(&user)
		if result.Error == nil {
			// Known subject: refresh the display name on every login
			user.Name = claims.Name
			return tx.Model(&user).Update("nome", claims.Name).Error
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return result.Error
		}

		// Pre-provisioned account, never linked to a Google subject yet
		result = tx.Where("email = ? AND (google_id = '' OR google_id IS NULL)", claims.Email).First(&user)
		if result.Error == nil {
			user.GoogleID = claims.Sub
			user.Name = claims.Name
			return tx.Model(&user).Updates(map[string]interface{}{
				"google_id": claims.Sub,
				"nome":      claims.Name,
			}).Error
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return result.Error
		}

		user = model.User{
			GoogleID: claims.Sub,
			Name:     claims.Name,
			Email:    claims.Email,
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return "", nil, apperror.Internal(err)
	}

	token, err := s.tokens.GenerateToken(user.GoogleID, user.Name, user.Email, user.ID)
	if err != nil {
		metrics.RecordAuthError("token_generation_failed")
		return "", nil, apperror.Internal(err)
	}

	metrics.LoginCounter.Inc()
	metrics.IncreaseActiveTokens()
	return token, &user, nil
}

// VerifyToken validates a session credential and re-resolves its subject
// against the user table. Credentials for deleted accounts fail with
// ErrUnknownUser.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		metrics.RecordAuthError("invalid_token")
		return nil, &apperror.AppError{Err: apperror.ErrInvalidCredential, Message: "invalid token"}
	}

	defer metrics.TrackDBOperation("query")(time.Now())
	var user model.User
	result := s.db.WithContext(ctx).Where("google_id = ?", claims.Subject).First(&user)
	if result.Error != nil {
		metrics.RecordAuthError("unknown_user")
		return nil, &apperror.AppError{Err: apperror.ErrUnknownUser, Message: "user not found"}
	}

	return &user, nil
}
