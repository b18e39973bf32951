package services

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gopher0727/Fredagslunchen/internal/models"
	"github.com/Gopher0727/Fredagslunchen/internal/notify"
)

func TestInviteLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.fx.User("anna")
	b := env.fx.User("bertil")
	c := env.fx.User("cecilia")
	group := env.fx.Group("fredag", a)
	env.fx.Member(group.ID, b.ID, models.MemberRoleMember)

	invite, err := env.invites.CreateInviteToken(ctx, group.ID, c.ID, a.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, invite.Token)
	assert.Equal(t, int64(1), env.fx.Count(&models.InviteToken{}, "group_id = ? AND user_id = ?", group.ID, c.ID))

	_, err = env.invites.CreateInviteToken(ctx, group.ID, c.ID, b.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, env.invites.DeleteInviteToken(ctx, group.ID, c.ID, a.ID))
	assert.Zero(t, env.fx.Count(&models.InviteToken{}, "group_id = ? AND user_id = ?", group.ID, c.ID))
}

func TestCreateInviteToken(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.fx.User("anna")
	member := env.fx.User("bertil")
	invitee := env.fx.User("cecilia")
	group := env.fx.Group("fredag", admin)
	env.fx.Member(group.ID, member.ID, models.MemberRoleMember)

	t.Run("second call returns the same invite", func(t *testing.T) {
		first, err := env.invites.CreateInviteToken(ctx, group.ID, invitee.ID, admin.ID)
		require.NoError(t, err)
		second, err := env.invites.CreateInviteToken(ctx, group.ID, invitee.ID, admin.ID)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, first.Token, second.Token)
		assert.Equal(t, int64(1), env.fx.Count(&models.InviteToken{}, "group_id = ? AND user_id = ?", group.ID, invitee.ID))

		events := env.notifier.Events()
		require.Len(t, events, 1)
		assert.Equal(t, notify.EventInviteCreated, events[0].Type)
		assert.Equal(t, invitee.ID, events[0].UserID)
		assert.Equal(t, first.Token, events[0].Token)
		assert.Equal(t, *invitee.Email, events[0].Email)
	})

	t.Run("already a member", func(t *testing.T) {
		_, err := env.invites.CreateInviteToken(ctx, group.ID, member.ID, admin.ID)
		assert.ErrorIs(t, err, ErrAlreadyMember)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := env.invites.CreateInviteToken(ctx, group.ID, 4242, admin.ID)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("delete absent invite succeeds", func(t *testing.T) {
		stranger := env.fx.User("erik")
		assert.NoError(t, env.invites.DeleteInviteToken(ctx, group.ID, stranger.ID, admin.ID))
		assert.NoError(t, env.invites.DeleteInviteToken(ctx, group.ID, stranger.ID, admin.ID))
	})

	t.Run("delete requires admin", func(t *testing.T) {
		err := env.invites.DeleteInviteToken(ctx, group.ID, invitee.ID, member.ID)
		assert.ErrorIs(t, err, ErrNotGroupAdmin)
		assert.Equal(t, int64(1), env.fx.Count(&models.InviteToken{}, "group_id = ? AND user_id = ?", group.ID, invitee.ID))
	})
}

func TestListInvites(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.fx.User("anna")
	invitee := env.fx.User("bertil")
	g1 := env.fx.Group("fredag", admin)
	g2 := env.fx.Group("torsdag", admin)
	env.fx.Invite(g1.ID, invitee.ID, admin.ID)
	env.fx.Invite(g2.ID, invitee.ID, admin.ID)

	invites, err := env.invites.ListInvites(ctx, invitee.ID)
	require.NoError(t, err)
	require.Len(t, invites, 2)
	for _, inv := range invites {
		require.NotNil(t, inv.Group)
		assert.Equal(t, inv.GroupID, inv.Group.ID)
	}

	none, err := env.invites.ListInvites(ctx, admin.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

// 任意 (group, user) 组合，邀请两次都成功且只有一条邀请记录
func TestProperty_InviteIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property test in short mode")
	}

	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.fx.User("anna")

	groups := make([]*models.Group, 3)
	for i := range groups {
		groups[i] = env.fx.Group("club", admin)
	}
	users := make([]*models.User, 5)
	for i := range users {
		users[i] = env.fx.User("guest")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("invite twice yields one row", prop.ForAll(
		func(gi, ui int) bool {
			group, user := groups[gi], users[ui]
			first, err := env.invites.CreateInviteToken(ctx, group.ID, user.ID, admin.ID)
			if err != nil {
				return false
			}
			second, err := env.invites.CreateInviteToken(ctx, group.ID, user.ID, admin.ID)
			if err != nil {
				return false
			}
			n := env.fx.Count(&models.InviteToken{}, "group_id = ? AND user_id = ?", group.ID, user.ID)
			return n == 1 && first.Token == second.Token
		},
		gen.IntRange(0, len(groups)-1),
		gen.IntRange(0, len(users)-1),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
