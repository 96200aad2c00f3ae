package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"streamchat/internal/config"
	"streamchat/internal/models"
	"streamchat/internal/storage"
)

// SessionStore persists the signed-in user's token and profile.
type SessionStore struct {
	KV storage.KV
}

func NewSessionStore(kv storage.KV) *SessionStore {
	return &SessionStore{KV: kv}
}

// Save stores token and the profile decoded from it.
func (s *SessionStore) Save(ctx context.Context, token string, profile models.User) error {
	if err := s.KV.Set(ctx, config.TokenKey, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	b, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	if err := s.KV.Set(ctx, config.UserProfileKey, string(b)); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// Load returns the stored token and user. A missing token yields an empty
// token and no error. The user comes from the stored profile, or from the
// token payload when no profile was saved.
func (s *SessionStore) Load(ctx context.Context) (string, models.User, error) {
	token, err := s.KV.Get(ctx, config.TokenKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return "", models.User{}, nil
	}
	if err != nil {
		return "", models.User{}, fmt.Errorf("load token: %w", err)
	}

	raw, err := s.KV.Get(ctx, config.UserProfileKey)
	if err == nil {
		var user models.User
		if jsonErr := json.Unmarshal([]byte(raw), &user); jsonErr == nil && user.ID != "" {
			return token, user, nil
		}
		log.Printf("WARNING: stored user profile is unreadable, decoding token instead")
	} else if !errors.Is(err, storage.ErrKeyNotFound) {
		return "", models.User{}, fmt.Errorf("load profile: %w", err)
	}

	user, err := DecodeUser(token)
	if err != nil {
		return token, models.User{}, err
	}
	return token, user, nil
}

// Clear forgets the stored session.
func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.KV.Delete(ctx, config.TokenKey); err != nil {
		return err
	}
	return s.KV.Delete(ctx, config.UserProfileKey)
}
