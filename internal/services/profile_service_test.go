package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expertgate/internal/authz"
)

func TestProfileService_ResolveView(t *testing.T) {
	users := newMemUsers()
	expert := users.add("e@x.com", "h", authz.RoleExpert)
	researcher := users.add("r@x.com", "h", authz.RoleResearcher)
	admin := users.add("a@x.com", "h", authz.RoleAdmin)
	svc := NewProfileService(users)

	view, err := svc.ResolveView(context.Background(), expert.ID)
	require.NoError(t, err)
	assert.Equal(t, authz.ViewExpertDashboard, view)

	view, err = svc.ResolveView(context.Background(), researcher.ID)
	require.NoError(t, err)
	assert.Equal(t, authz.ViewResearcherDashboard, view)

	view, err = svc.ResolveView(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.Equal(t, authz.ViewResearcherDashboard, view)
}

func TestProfileService_RoleChangeIsSeenImmediately(t *testing.T) {
	users := newMemUsers()
	u := users.add("r@x.com", "h", authz.RoleResearcher)
	svc := NewProfileService(users)

	view, _ := svc.ResolveView(context.Background(), u.ID)
	assert.Equal(t, authz.ViewResearcherDashboard, view)

	require.NoError(t, users.UpdateRole(context.Background(), u.ID, authz.RoleExpert))
	view, _ = svc.ResolveView(context.Background(), u.ID)
	assert.Equal(t, authz.ViewExpertDashboard, view)
}

func TestProfileService_Errors(t *testing.T) {
	users := newMemUsers()
	svc := NewProfileService(users)

	_, err := svc.ResolveView(context.Background(), 42)
	assert.ErrorIs(t, err, ErrUserNotFound)

	users.getErr = errors.New("db down")
	_, err = svc.ResolveView(context.Background(), 42)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}
