package authz

import (
	"context"
	"errors"
	"testing"

	"hymnbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers map[uint]*models.User

func (s stubUsers) GetByID(_ context.Context, id uint) (*models.User, error) {
	if id == 500 {
		return nil, models.NewInternalError(errors.New("db down"))
	}
	u, ok := s[id]
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	return u, nil
}

func newTestGate() *Gate {
	return NewGate(stubUsers{
		1: {ID: 1, Username: "newcomer"},
		2: {ID: 2, Username: "regular", ApprovedCount: 5},
		3: {ID: 3, Username: "admin", IsAdmin: true},
	}, 5)
}

func TestGate_Predicates(t *testing.T) {
	g := newTestGate()
	ctx := context.Background()

	tests := []struct {
		name                   string
		id                     uint
		authed, admin, trusted bool
	}{
		{"anonymous", 0, false, false, false},
		{"unknown user", 99, false, false, false},
		{"newcomer", 1, true, false, false},
		{"trusted at threshold", 2, true, false, true},
		{"admin", 3, true, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authed, err := g.IsAuthenticated(ctx, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.authed, authed)

			admin, err := g.IsAdmin(ctx, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.admin, admin)

			trusted, err := g.IsTrusted(ctx, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.trusted, trusted)
		})
	}
}

func TestGate_ThresholdIsConfigurable(t *testing.T) {
	users := stubUsers{7: {ID: 7, ApprovedCount: 3}}
	ctx := context.Background()

	trusted, err := NewGate(users, 3).IsTrusted(ctx, 7)
	require.NoError(t, err)
	assert.True(t, trusted)

	trusted, err = NewGate(users, 5).IsTrusted(ctx, 7)
	require.NoError(t, err)
	assert.False(t, trusted)

	assert.Equal(t, 1, NewGate(users, 0).Threshold())
}

func TestGate_Require(t *testing.T) {
	g := newTestGate()
	ctx := context.Background()

	_, err := g.RequireAuthenticated(ctx, 99)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	_, err = g.RequireAdmin(ctx, 1)
	assert.ErrorIs(t, err, models.ErrForbidden)

	c, err := g.RequireAdmin(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, uint(3), c.ID())
	assert.True(t, c.AutoApproves())
}

func TestGate_StoreFailureSurfaces(t *testing.T) {
	g := newTestGate()
	_, err := g.Resolve(context.Background(), 500)
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrNotFound)

	_, err = g.RequireAuthenticated(context.Background(), 500)
	assert.NotErrorIs(t, err, models.ErrUnauthenticated)
}
