package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sopforge/sop-engine/pkg/apperrors"
	"github.com/sopforge/sop-engine/pkg/audit"
	"github.com/sopforge/sop-engine/pkg/crypto"
	"github.com/sopforge/sop-engine/pkg/models"
)

type mockUserRepo struct {
	CreateFunc       func(ctx context.Context, user *models.User) error
	GetByIDFunc      func(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmailFunc   func(ctx context.Context, email string) (*models.User, error)
	ListFunc         func(ctx context.Context) ([]models.User, error)
	UpdateFunc       func(ctx context.Context, user *models.User) error
	UpdateAPIKeyFunc func(ctx context.Context, id uuid.UUID, encryptedKey string) error
	DeleteFunc       func(ctx context.Context, id uuid.UUID) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	user.ID = uuid.New()
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockUserRepo) List(ctx context.Context) ([]models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) UpdateAPIKey(ctx context.Context, id uuid.UUID, encryptedKey string) error {
	if m.UpdateAPIKeyFunc != nil {
		return m.UpdateAPIKeyFunc(ctx, id, encryptedKey)
	}
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func newUserService(t *testing.T, repo *mockUserRepo) UserService {
	t.Helper()
	encryptor, err := crypto.NewCredentialEncryptor("test-credentials-passphrase")
	require.NoError(t, err)
	return NewUserService(repo, encryptor, audit.NewSecurityAuditor(zap.NewNop()), zap.NewNop())
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthenticate(t *testing.T) {
	userID := uuid.New()
	repo := &mockUserRepo{
		GetByEmailFunc: func(_ context.Context, email string) (*models.User, error) {
			if email != "known@example.com" {
				return nil, apperrors.ErrNotFound
			}
			return &models.User{ID: userID, Email: email, PasswordHash: hashPassword(t, "correct-horse")}, nil
		},
	}
	svc := newUserService(t, repo)
	ctx := context.Background()

	user, err := svc.Authenticate(ctx, "known@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)

	_, err = svc.Authenticate(ctx, "known@example.com", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "unknown@example.com", "correct-horse")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestSetAPIKey_RoundTrip(t *testing.T) {
	userID := uuid.New()
	stored := ""
	repo := &mockUserRepo{
		GetByIDFunc: func(_ context.Context, id uuid.UUID) (*models.User, error) {
			return &models.User{ID: id, APIKeyEncrypted: stored}, nil
		},
		UpdateAPIKeyFunc: func(_ context.Context, _ uuid.UUID, encryptedKey string) error {
			stored = encryptedKey
			return nil
		},
	}
	svc := newUserService(t, repo)
	ctx := context.Background()

	require.NoError(t, svc.SetAPIKey(ctx, userID, "sk-live-0123456789abcdef"))
	require.NotEmpty(t, stored)
	assert.NotContains(t, stored, "sk-live", "stored key must be encrypted")

	// The factory path decrypts back to the original.
	key, err := svc.UpstreamAPIKey(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "sk-live-0123456789abcdef", key)

	// The profile path only ever exposes a masked rendering.
	masked, err := svc.MaskedAPIKey(ctx, userID)
	require.NoError(t, err)
	assert.NotEqual(t, "sk-live-0123456789abcdef", masked)
	assert.True(t, strings.HasPrefix(masked, "sk-liv"), masked)
}

func TestSetAPIKey_TooShort(t *testing.T) {
	svc := newUserService(t, &mockUserRepo{})
	err := svc.SetAPIKey(context.Background(), uuid.New(), "short")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSetAPIKey_ClearWithEmpty(t *testing.T) {
	var stored *string
	repo := &mockUserRepo{
		UpdateAPIKeyFunc: func(_ context.Context, _ uuid.UUID, encryptedKey string) error {
			stored = &encryptedKey
			return nil
		},
	}
	svc := newUserService(t, repo)

	require.NoError(t, svc.SetAPIKey(context.Background(), uuid.New(), "  "))
	require.NotNil(t, stored)
	assert.Empty(t, *stored)
}

func TestMaskedAPIKey_NoneSaved(t *testing.T) {
	repo := &mockUserRepo{
		GetByIDFunc: func(_ context.Context, id uuid.UUID) (*models.User, error) {
			return &models.User{ID: id}, nil
		},
	}
	svc := newUserService(t, repo)

	masked, err := svc.MaskedAPIKey(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, masked)
}

func TestUserCreate_Validation(t *testing.T) {
	svc := newUserService(t, &mockUserRepo{})
	ctx := context.Background()

	_, err := svc.Create(ctx, "", "a@example.com", "pw", models.RoleUser)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.Create(ctx, "Name", "a@example.com", "pw", "SUPERUSER")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestUserCreate_HashesPassword(t *testing.T) {
	var created *models.User
	repo := &mockUserRepo{
		CreateFunc: func(_ context.Context, user *models.User) error {
			user.ID = uuid.New()
			created = user
			return nil
		},
	}
	svc := newUserService(t, repo)

	user, err := svc.Create(context.Background(), "Name", "a@example.com", "secret-pw", "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	require.NotNil(t, created)
	assert.NotEqual(t, "secret-pw", created.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("secret-pw")))
}

func TestUserDelete_SelfDeletionBlocked(t *testing.T) {
	svc := newUserService(t, &mockUserRepo{})
	adminID := uuid.New()

	err := svc.Delete(ctxForUser(adminID, models.RoleAdmin), adminID)
	assert.ErrorIs(t, err, apperrors.ErrSelfDeletion)

	err = svc.Delete(ctxForUser(adminID, models.RoleAdmin), uuid.New())
	assert.NoError(t, err)
}
