package services

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sopforge/sop-engine/pkg/apperrors"
	"github.com/sopforge/sop-engine/pkg/audit"
	"github.com/sopforge/sop-engine/pkg/auth"
	"github.com/sopforge/sop-engine/pkg/models"
)

func ctxForUser(userID uuid.UUID, role string) context.Context {
	return auth.WithClaims(context.Background(), &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()},
		Role:             role,
	})
}

func newSOPService(repo *mockSOPRepo) SOPService {
	return NewSOPService(repo, audit.NewSecurityAuditor(zap.NewNop()), zap.NewNop())
}

func TestSOPGet_OwnerAllowed(t *testing.T) {
	ownerID := uuid.New()
	sopID := uuid.New()
	repo := &mockSOPRepo{
		GetByIDFunc: func(_ context.Context, id uuid.UUID) (*models.SOP, error) {
			return &models.SOP{ID: id, Title: "Mine", OwnerID: ownerID}, nil
		},
	}
	svc := newSOPService(repo)

	sop, err := svc.Get(ctxForUser(ownerID, models.RoleUser), sopID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", sop.Title)
}

func TestSOPGet_StrangerForbidden(t *testing.T) {
	repo := &mockSOPRepo{
		GetByIDFunc: func(_ context.Context, id uuid.UUID) (*models.SOP, error) {
			return &models.SOP{ID: id, OwnerID: uuid.New()}, nil
		},
	}
	svc := newSOPService(repo)

	_, err := svc.Get(ctxForUser(uuid.New(), models.RoleUser), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestSOPGet_AdminAllowed(t *testing.T) {
	repo := &mockSOPRepo{
		GetByIDFunc: func(_ context.Context, id uuid.UUID) (*models.SOP, error) {
			return &models.SOP{ID: id, OwnerID: uuid.New()}, nil
		},
	}
	svc := newSOPService(repo)

	_, err := svc.Get(ctxForUser(uuid.New(), models.RoleAdmin), uuid.New())
	assert.NoError(t, err)
}

func TestSOPList_ScopedByRole(t *testing.T) {
	var gotOwner *uuid.UUID
	repo := &mockSOPRepo{
		ListFunc: func(_ context.Context, ownerID *uuid.UUID) ([]models.SOPSummary, error) {
			gotOwner = ownerID
			return nil, nil
		},
	}
	svc := newSOPService(repo)
	userID := uuid.New()

	_, err := svc.List(ctxForUser(userID, models.RoleUser))
	require.NoError(t, err)
	require.NotNil(t, gotOwner)
	assert.Equal(t, userID, *gotOwner)

	_, err = svc.List(ctxForUser(userID, models.RoleAdmin))
	require.NoError(t, err)
	assert.Nil(t, gotOwner)
}

func TestSOPList_Unauthenticated(t *testing.T) {
	svc := newSOPService(&mockSOPRepo{})
	_, err := svc.List(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestSOPUpdate_KeepsTitleWhenAbsent(t *testing.T) {
	ownerID := uuid.New()
	var gotTitle, gotContent string
	repo := &mockSOPRepo{
		GetByIDFunc: func(_ context.Context, id uuid.UUID) (*models.SOP, error) {
			return &models.SOP{ID: id, Title: "Original", OwnerID: ownerID}, nil
		},
		UpdateContentFunc: func(_ context.Context, _ uuid.UUID, title, content string) error {
			gotTitle = title
			gotContent = content
			return nil
		},
	}
	svc := newSOPService(repo)

	_, err := svc.Update(ctxForUser(ownerID, models.RoleUser), uuid.New(), nil, "<p>new</p>")
	require.NoError(t, err)
	assert.Equal(t, "Original", gotTitle)
	assert.Equal(t, "<p>new</p>", gotContent)
}

func TestSOPUpdate_ExplicitEmptyTitleOverwrites(t *testing.T) {
	ownerID := uuid.New()
	var gotTitle string
	repo := &mockSOPRepo{
		GetByIDFunc: func(_ context.Context, id uuid.UUID) (*models.SOP, error) {
			return &models.SOP{ID: id, Title: "Original", OwnerID: ownerID}, nil
		},
		UpdateContentFunc: func(_ context.Context, _ uuid.UUID, title, _ string) error {
			gotTitle = title
			return nil
		},
	}
	svc := newSOPService(repo)

	empty := ""
	_, err := svc.Update(ctxForUser(ownerID, models.RoleUser), uuid.New(), &empty, "<p>new</p>")
	require.NoError(t, err)
	assert.Empty(t, gotTitle)
}

func TestSOPUpdate_StrangerForbidden(t *testing.T) {
	repo := &mockSOPRepo{
		GetByIDFunc: func(_ context.Context, id uuid.UUID) (*models.SOP, error) {
			return &models.SOP{ID: id, OwnerID: uuid.New()}, nil
		},
	}
	svc := newSOPService(repo)

	title := "t"
	_, err := svc.Update(ctxForUser(uuid.New(), models.RoleUser), uuid.New(), &title, "c")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestSOPDelete_Owner(t *testing.T) {
	ownerID := uuid.New()
	var deleted bool
	repo := &mockSOPRepo{
		GetByIDFunc: func(_ context.Context, id uuid.UUID) (*models.SOP, error) {
			return &models.SOP{ID: id, OwnerID: ownerID}, nil
		},
		DeleteFunc: func(context.Context, uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	svc := newSOPService(repo)

	require.NoError(t, svc.Delete(ctxForUser(ownerID, models.RoleUser), uuid.New()))
	assert.True(t, deleted)
}

func TestSOPDelete_Missing(t *testing.T) {
	svc := newSOPService(&mockSOPRepo{})
	err := svc.Delete(ctxForUser(uuid.New(), models.RoleAdmin), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
