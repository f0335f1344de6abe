package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/internal/transfer"
	"github.com/maheshrc27/crosspost/pkg/apperrors"
	"github.com/maheshrc27/crosspost/pkg/utils"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	apiKeyPrefix   = "cp_"
	apiKeyBytes    = 24
	maxKeysPerUser = 5
)

type ApiKeyService interface {
	Create(ctx context.Context, userID string) (*transfer.NewApiKey, error)
	List(ctx context.Context, userID string) ([]*models.ApiKey, error)
	GetUserID(ctx context.Context, apiKey string) (string, error)
	RemoveAPIKey(ctx context.Context, userID, keyID string) error
}

type apiKeyService struct {
	k repository.ApiKeyRepository
}

func NewApiKeyService(k repository.ApiKeyRepository) ApiKeyService {
	return &apiKeyService{
		k: k,
	}
}

func (s *apiKeyService) Create(ctx context.Context, userID string) (*transfer.NewApiKey, error) {
	if userID == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "UserID is not valid")
	}

	keys, err := s.k.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(keys) >= maxKeysPerUser {
		err = apperrors.Newf(apperrors.KindValidationFailed, "Only %d API Keys can be created.", maxKeysPerUser)
		slog.Info(err.Error())
		return nil, err
	}

	random, err := utils.GenerateRandomKey(apiKeyBytes, base64.RawURLEncoding)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error generating API key: %w", err)
	}
	key := apiKeyPrefix + random

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	apiKey := &models.ApiKey{
		ID:      id,
		UserID:  userID,
		Prefix:  key[:len(apiKeyPrefix)+6],
		KeyHash: utils.Hash(key),
	}
	if err := s.k.Create(ctx, apiKey); err != nil {
		return nil, fmt.Errorf("error saving API key: %w", err)
	}

	return &transfer.NewApiKey{ID: apiKey.ID, Key: key, Prefix: apiKey.Prefix}, nil
}

// GetUserID resolves a presented key to its owner by hash.
func (s *apiKeyService) GetUserID(ctx context.Context, apiKey string) (string, error) {
	if !strings.HasPrefix(apiKey, apiKeyPrefix) {
		return "", apperrors.New(apperrors.KindInvalidInput, "Key doesn't exist")
	}

	userID, ok, err := s.k.GetUserIDByHash(ctx, utils.Hash(apiKey))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", apperrors.New(apperrors.KindInvalidInput, "Key doesn't exist")
	}

	return userID, nil
}

func (s *apiKeyService) List(ctx context.Context, userID string) ([]*models.ApiKey, error) {
	apiKeys, err := s.k.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting API keys: %w", err)
	}
	if apiKeys == nil {
		apiKeys = []*models.ApiKey{}
	}
	return apiKeys, nil
}

func (s *apiKeyService) RemoveAPIKey(ctx context.Context, userID, keyID string) error {
	if userID == "" {
		return apperrors.New(apperrors.KindInvalidInput, "UserID is not valid")
	}
	if keyID == "" {
		return apperrors.New(apperrors.KindInvalidInput, "KeyID is not valid")
	}

	apiKey, err := s.k.GetByID(ctx, keyID)
	if err != nil {
		return err
	}
	if apiKey == nil || apiKey.UserID != userID {
		err = apperrors.New(apperrors.KindNotFound, "Key doesn't exist")
		slog.Info(err.Error())
		return err
	}

	return s.k.Remove(ctx, keyID)
}
