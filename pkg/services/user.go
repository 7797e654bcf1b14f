package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sopforge/sop-engine/pkg/apperrors"
	"github.com/sopforge/sop-engine/pkg/audit"
	"github.com/sopforge/sop-engine/pkg/auth"
	"github.com/sopforge/sop-engine/pkg/crypto"
	"github.com/sopforge/sop-engine/pkg/logging"
	"github.com/sopforge/sop-engine/pkg/models"
	"github.com/sopforge/sop-engine/pkg/repositories"
)

const minAPIKeyLength = 10

// UserService provides account management and credential handling.
type UserService interface {
	// Authenticate verifies credentials and returns the account. Failures
	// return ErrInvalidCredentials without distinguishing unknown email
	// from wrong password.
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)

	// MaskedAPIKey returns the user's saved upstream key in masked form,
	// or empty when none is saved.
	MaskedAPIKey(ctx context.Context, id uuid.UUID) (string, error)
	// SetAPIKey validates, encrypts, and stores the key. An empty key
	// clears the saved credential.
	SetAPIKey(ctx context.Context, id uuid.UUID, key string) error
	// UpstreamAPIKey resolves the decrypted credential for the generation
	// client factory; empty when none is saved.
	UpstreamAPIKey(ctx context.Context, userID uuid.UUID) (string, error)

	// Admin operations.
	Create(ctx context.Context, name, email, password, role string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id uuid.UUID, name, email, password, role string) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	userRepo  repositories.UserRepository
	encryptor *crypto.CredentialEncryptor
	auditor   *audit.SecurityAuditor
	logger    *zap.Logger
}

// NewUserService creates a new user service.
func NewUserService(userRepo repositories.UserRepository, encryptor *crypto.CredentialEncryptor, auditor *audit.SecurityAuditor, logger *zap.Logger) UserService {
	return &userService{
		userRepo:  userRepo,
		encryptor: encryptor,
		auditor:   auditor,
		logger:    logger.Named("user"),
	}
}

var _ UserService = (*userService)(nil)

func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *userService) MaskedAPIKey(ctx context.Context, id uuid.UUID) (string, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if user.APIKeyEncrypted == "" {
		return "", nil
	}

	key, err := s.encryptor.Decrypt(user.APIKeyEncrypted)
	if err != nil {
		s.logger.Error("Failed to decrypt stored API key",
			zap.String("user_id", id.String()),
			zap.Error(err))
		return "", fmt.Errorf("failed to decrypt API key: %w", err)
	}
	return logging.MaskKey(key), nil
}

func (s *userService) SetAPIKey(ctx context.Context, id uuid.UUID, key string) error {
	key = strings.TrimSpace(key)

	encrypted := ""
	if key != "" {
		if len(key) < minAPIKeyLength {
			return fmt.Errorf("%w: API key is too short", apperrors.ErrInvalidInput)
		}
		var err error
		encrypted, err = s.encryptor.Encrypt(key)
		if err != nil {
			return fmt.Errorf("failed to encrypt API key: %w", err)
		}
	}

	if err := s.userRepo.UpdateAPIKey(ctx, id, encrypted); err != nil {
		return err
	}
	s.auditor.LogAPIKeyUpdate(ctx, id)
	return nil
}

func (s *userService) UpstreamAPIKey(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.APIKeyEncrypted == "" {
		return "", nil
	}
	return s.encryptor.Decrypt(user.APIKeyEncrypted)
}

func (s *userService) Create(ctx context.Context, name, email, password, role string) (*models.User, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return nil, fmt.Errorf("%w: name, email, and password are required", apperrors.ErrInvalidInput)
	}
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: invalid role %q", apperrors.ErrInvalidInput, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.auditor.LogAdminMutation(ctx, "create", user.ID)
	return user, nil
}

func (s *userService) List(ctx context.Context) ([]models.User, error) {
	return s.userRepo.List(ctx)
}

func (s *userService) Update(ctx context.Context, id uuid.UUID, name, email, password, role string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(name) != "" {
		user.Name = strings.TrimSpace(name)
	}
	if strings.TrimSpace(email) != "" {
		user.Email = email
	}
	if role != "" {
		if role != models.RoleUser && role != models.RoleAdmin {
			return nil, fmt.Errorf("%w: invalid role %q", apperrors.ErrInvalidInput, role)
		}
		user.Role = role
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.auditor.LogAdminMutation(ctx, "update", id)
	return user, nil
}

func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	if callerID, ok := auth.UserIDFromContext(ctx); ok && callerID == id {
		return apperrors.ErrSelfDeletion
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.auditor.LogAdminMutation(ctx, "delete", id)
	return nil
}
