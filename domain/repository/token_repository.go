package repository

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/outageops/sobot/domain/entity"
	"golang.org/x/crypto/nacl/secretbox"
	"gorm.io/gorm"
)

var ErrTokenNotFound = fmt.Errorf("token not found")

type TokenRepositoryer interface {
	SaveToken(ctx context.Context, userID, token string) (*entity.UserToken, error)
	FindUser(ctx context.Context, userID string) (*entity.UserToken, error)
	Token(ctx context.Context, userID string) (string, error)
}

// TokenRepository seals OAuth tokens with a symmetric key before they
// hit the store. The key is 32 bytes, base64-encoded in the
// environment.
type TokenRepository struct {
	db  *gorm.DB
	key [32]byte
}

func NewTokenRepository(db *gorm.DB, encodedKey string) (*TokenRepository, error) {
	raw, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("decode token encryption key error: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("token encryption key must be 32 bytes, got %d", len(raw))
	}
	r := &TokenRepository{db: db}
	copy(r.key[:], raw)
	return r, nil
}

// SaveToken upserts by user id. The first registrant becomes ADMIN,
// later ones USER; re-auth refreshes the token but never the role.
func (r *TokenRepository) SaveToken(ctx context.Context, userID, token string) (*entity.UserToken, error) {
	sealed, err := r.seal(token)
	if err != nil {
		return nil, err
	}

	var saved entity.UserToken
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entity.UserToken
		err := tx.Where("user_id = ?", userID).First(&existing).Error
		if err == nil {
			existing.EncryptedToken = sealed
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("update token error: %w", err)
			}
			saved = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("find token error: %w", err)
		}

		var count int64
		if err := tx.Model(&entity.UserToken{}).Count(&count).Error; err != nil {
			return fmt.Errorf("count tokens error: %w", err)
		}
		role := entity.RoleUser
		if count == 0 {
			role = entity.RoleAdmin
		}
		saved = entity.UserToken{
			UserID:         userID,
			EncryptedToken: sealed,
			Role:           role,
		}
		if err := tx.Create(&saved).Error; err != nil {
			return fmt.Errorf("create token error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *TokenRepository) FindUser(ctx context.Context, userID string) (*entity.UserToken, error) {
	var token entity.UserToken
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("find token error: %w", err)
	}
	return &token, nil
}

func (r *TokenRepository) Token(ctx context.Context, userID string) (string, error) {
	token, err := r.FindUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return r.open(token.EncryptedToken)
}

func (r *TokenRepository) seal(plain string) (string, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce error: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(plain), &nonce, &r.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (r *TokenRepository) open(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode sealed token error: %w", err)
	}
	if len(raw) < 24 {
		return "", fmt.Errorf("sealed token too short")
	}
	var nonce [24]byte
	copy(nonce[:], raw[:24])
	plain, ok := secretbox.Open(nil, raw[24:], &nonce, &r.key)
	if !ok {
		return "", fmt.Errorf("open sealed token error")
	}
	return string(plain), nil
}
