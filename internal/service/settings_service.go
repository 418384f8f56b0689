package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lmring/lmring/internal/domain"
	"github.com/lmring/lmring/internal/repository"
	"github.com/lmring/lmring/internal/security"
)

var (
	ErrInvalidProviderName = errors.New("provider name must be 1-64 lowercase letters, digits, '-' or '_'")
	ErrEmptyAPIKey         = errors.New("api key is required")
	ErrInvalidTheme        = errors.New("theme must be light, dark or system")
	ErrInvalidLanguage     = errors.New("unsupported language")
	ErrTooManyModels       = errors.New("too many default models")
)

var providerNameRe = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// MaskedAPIKey is the only form in which a stored key leaves the service.
type MaskedAPIKey struct {
	ProviderName string `json:"provider_name"`
	Masked       string `json:"masked_key"`
	UpdatedAt    string `json:"updated_at"`
}

type APIKeyService struct {
	repo      repository.APIKeyRepository
	encryptor *security.Encryptor
}

func NewAPIKeyService(repo repository.APIKeyRepository, encryptor *security.Encryptor) *APIKeyService {
	return &APIKeyService{repo: repo, encryptor: encryptor}
}

func (s *APIKeyService) Put(ctx context.Context, userID uuid.UUID, provider, key string) (*MaskedAPIKey, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !providerNameRe.MatchString(provider) {
		return nil, ErrInvalidProviderName
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrEmptyAPIKey
	}
	sealed, err := s.encryptor.Encrypt(key)
	if err != nil {
		return nil, err
	}
	row := &domain.APIKey{UserID: userID, ProviderName: provider, EncryptedKey: sealed}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return nil, err
	}
	return &MaskedAPIKey{ProviderName: provider, Masked: security.MaskSecret(key), UpdatedAt: row.UpdatedAt.Format(time.RFC3339)}, nil
}

// List decrypts each key only to mask it. Rows that no longer decrypt, for
// example after a key rotation, are reported with an empty mask.
func (s *APIKeyService) List(ctx context.Context, userID uuid.UUID) ([]MaskedAPIKey, error) {
	rows, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]MaskedAPIKey, 0, len(rows))
	for _, r := range rows {
		masked := ""
		if plain, err := s.encryptor.Decrypt(r.EncryptedKey); err == nil {
			masked = security.MaskSecret(plain)
		}
		out = append(out, MaskedAPIKey{ProviderName: r.ProviderName, Masked: masked, UpdatedAt: r.UpdatedAt.Format(time.RFC3339)})
	}
	return out, nil
}

// Reveal returns the plaintext key for server-side use by model clients.
func (s *APIKeyService) Reveal(ctx context.Context, userID uuid.UUID, provider string) (string, error) {
	row, err := s.repo.FindByProvider(ctx, userID, strings.ToLower(strings.TrimSpace(provider)))
	if err != nil {
		return "", err
	}
	return s.encryptor.Decrypt(row.EncryptedKey)
}

func (s *APIKeyService) Delete(ctx context.Context, userID uuid.UUID, provider string) error {
	return s.repo.Delete(ctx, userID, strings.ToLower(strings.TrimSpace(provider)))
}

const maxDefaultModels = 16

type PreferencesUpdate struct {
	Theme         *string
	Language      *string
	DefaultModels []string
	ConfigSource  *string
}

type PreferencesService struct {
	repo    repository.PreferencesRepository
	locales []string
}

func NewPreferencesService(repo repository.PreferencesRepository, locales []string) *PreferencesService {
	return &PreferencesService{repo: repo, locales: locales}
}

// Get never fails for a user without stored preferences; defaults are returned.
func (s *PreferencesService) Get(ctx context.Context, userID uuid.UUID) (*domain.UserPreferences, error) {
	p, err := s.repo.FindByUserID(ctx, userID)
	if errors.Is(err, repository.ErrPreferencesNotFound) {
		d := domain.DefaultPreferences(userID)
		return &d, nil
	}
	return p, err
}

func (s *PreferencesService) Update(ctx context.Context, userID uuid.UUID, in PreferencesUpdate) (*domain.UserPreferences, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Theme != nil {
		switch *in.Theme {
		case "light", "dark", "system":
			p.Theme = *in.Theme
		default:
			return nil, ErrInvalidTheme
		}
	}
	if in.Language != nil {
		if !s.supportedLanguage(*in.Language) {
			return nil, ErrInvalidLanguage
		}
		p.Language = *in.Language
	}
	if in.DefaultModels != nil {
		if len(in.DefaultModels) > maxDefaultModels {
			return nil, ErrTooManyModels
		}
		models := make([]string, 0, len(in.DefaultModels))
		seen := make(map[string]struct{}, len(in.DefaultModels))
		for _, m := range in.DefaultModels {
			m = strings.TrimSpace(m)
			if _, dup := seen[m]; m == "" || dup {
				continue
			}
			seen[m] = struct{}{}
			models = append(models, m)
		}
		p.DefaultModels = models
	}
	if in.ConfigSource != nil {
		src, err := domain.ParseConfigSource(*in.ConfigSource)
		if err != nil {
			return nil, err
		}
		p.ConfigSource = src
	}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PreferencesService) supportedLanguage(lang string) bool {
	for _, l := range s.locales {
		if l == lang {
			return true
		}
	}
	return false
}
