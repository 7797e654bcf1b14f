package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sopforge/sop-engine/pkg/apperrors"
	"github.com/sopforge/sop-engine/pkg/models"
)

type mockUserService struct {
	AuthenticateFunc   func(ctx context.Context, email, password string) (*models.User, error)
	GetFunc            func(ctx context.Context, id uuid.UUID) (*models.User, error)
	MaskedAPIKeyFunc   func(ctx context.Context, id uuid.UUID) (string, error)
	SetAPIKeyFunc      func(ctx context.Context, id uuid.UUID, key string) error
	UpstreamAPIKeyFunc func(ctx context.Context, userID uuid.UUID) (string, error)
	CreateFunc         func(ctx context.Context, name, email, password, role string) (*models.User, error)
	ListFunc           func(ctx context.Context) ([]models.User, error)
	UpdateFunc         func(ctx context.Context, id uuid.UUID, name, email, password, role string) (*models.User, error)
	DeleteFunc         func(ctx context.Context, id uuid.UUID) error
}

func (m *mockUserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, email, password)
	}
	return nil, apperrors.ErrInvalidCredentials
}

func (m *mockUserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return &models.User{ID: id, Role: models.RoleUser}, nil
}

func (m *mockUserService) MaskedAPIKey(ctx context.Context, id uuid.UUID) (string, error) {
	if m.MaskedAPIKeyFunc != nil {
		return m.MaskedAPIKeyFunc(ctx, id)
	}
	return "", nil
}

func (m *mockUserService) SetAPIKey(ctx context.Context, id uuid.UUID, key string) error {
	if m.SetAPIKeyFunc != nil {
		return m.SetAPIKeyFunc(ctx, id, key)
	}
	return nil
}

func (m *mockUserService) UpstreamAPIKey(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.UpstreamAPIKeyFunc != nil {
		return m.UpstreamAPIKeyFunc(ctx, userID)
	}
	return "", nil
}

func (m *mockUserService) Create(ctx context.Context, name, email, password, role string) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, name, email, password, role)
	}
	return &models.User{ID: uuid.New(), Name: name, Email: email, Role: role}, nil
}

func (m *mockUserService) List(ctx context.Context) ([]models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *mockUserService) Update(ctx context.Context, id uuid.UUID, name, email, password, role string) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, name, email, password, role)
	}
	return &models.User{ID: id, Name: name, Email: email, Role: role}, nil
}

func (m *mockUserService) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func TestUserList(t *testing.T) {
	svc := &mockUserService{
		ListFunc: func(_ context.Context) ([]models.User, error) {
			return []models.User{
				{ID: uuid.New(), Name: "Ops Admin", Email: "admin@example.com", Role: models.RoleAdmin, PasswordHash: "secret-hash"},
				{ID: uuid.New(), Name: "Writer", Email: "writer@example.com", Role: models.RoleUser},
			}, nil
		},
	}
	h := NewUserHandler(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.List(rec, authedRequest(http.MethodGet, "/api/admin/users", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Users []userView `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Users, 2)
	assert.NotContains(t, rec.Body.String(), "secret-hash")
}

func TestUserCreate(t *testing.T) {
	h := NewUserHandler(&mockUserService{}, zap.NewNop())

	body := bytes.NewBufferString(`{"name":"New User","email":"new@example.com","password":"hunter22","role":"USER"}`)
	rec := httptest.NewRecorder()
	h.Create(rec, authedRequest(http.MethodPost, "/api/admin/users", body))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "new@example.com")
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	svc := &mockUserService{
		CreateFunc: func(_ context.Context, _, _, _, _ string) (*models.User, error) {
			return nil, apperrors.ErrInvalidInput
		},
	}
	h := NewUserHandler(svc, zap.NewNop())

	body := bytes.NewBufferString(`{"name":"Dup","email":"dup@example.com","password":"hunter22"}`)
	rec := httptest.NewRecorder()
	h.Create(rec, authedRequest(http.MethodPost, "/api/admin/users", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserUpdate(t *testing.T) {
	id := uuid.New()
	var gotName string
	svc := &mockUserService{
		UpdateFunc: func(_ context.Context, _ uuid.UUID, name, _, _, _ string) (*models.User, error) {
			gotName = name
			return &models.User{ID: id, Name: name, Role: models.RoleUser}, nil
		},
	}
	h := NewUserHandler(svc, zap.NewNop())

	body := bytes.NewBufferString(`{"name":"Renamed"}`)
	req := authedRequest(http.MethodPatch, "/api/admin/users/"+id.String(), body)
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", gotName)
}

func TestUserDelete_SelfDeletion(t *testing.T) {
	id := uuid.New()
	svc := &mockUserService{
		DeleteFunc: func(_ context.Context, _ uuid.UUID) error {
			return apperrors.ErrSelfDeletion
		},
	}
	h := NewUserHandler(svc, zap.NewNop())

	req := authedRequest(http.MethodDelete, "/api/admin/users/"+id.String(), nil)
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "SELF_DELETION")
}
