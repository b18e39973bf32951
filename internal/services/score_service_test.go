package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Gopher0727/Fredagslunchen/internal/models"
	"github.com/Gopher0727/Fredagslunchen/internal/notify"
)

type scoreFixture struct {
	env    *testEnv
	admin  *models.User
	member *models.User
	group  *models.Group
	lunch  *models.Lunch
}

func newScoreFixture(t *testing.T) *scoreFixture {
	env := newTestEnv(t)
	admin := env.fx.User("anna")
	member := env.fx.User("mats")
	group := env.fx.Group("fredag", admin)
	env.fx.Member(group.ID, member.ID, models.MemberRoleMember)
	return &scoreFixture{
		env:    env,
		admin:  admin,
		member: member,
		group:  group,
		lunch:  env.fx.Lunch(group.ID, admin.ID),
	}
}

func TestCreateScore(t *testing.T) {
	ctx := context.Background()

	t.Run("second score overwrites the first", func(t *testing.T) {
		f := newScoreFixture(t)

		first, err := f.env.scores.CreateScore(ctx, f.member.ID, f.lunch.ID, 7, "great", f.member.ID)
		require.NoError(t, err)
		assert.Equal(t, 7.0, first.Score)
		assert.Equal(t, int64(1), f.env.fx.Count(&models.Score{}, "lunch_id = ? AND user_id = ?", f.lunch.ID, f.member.ID))

		second, err := f.env.scores.CreateScore(ctx, f.member.ID, f.lunch.ID, 4.5, "meh", f.member.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 4.5, second.Score)
		assert.Equal(t, "meh", second.Comment)
		assert.Equal(t, int64(1), f.env.fx.Count(&models.Score{}, "lunch_id = ? AND user_id = ?", f.lunch.ID, f.member.ID))
	})

	t.Run("fulfils pending score request", func(t *testing.T) {
		f := newScoreFixture(t)
		f.env.fx.ScoreRequest(f.lunch.ID, f.member.ID, f.admin.ID)

		_, err := f.env.scores.CreateScore(ctx, f.member.ID, f.lunch.ID, 8, "", f.member.ID)
		require.NoError(t, err)
		assert.Zero(t, f.env.fx.Count(&models.ScoreRequest{}, "lunch_id = ? AND user_id = ?", f.lunch.ID, f.member.ID))
	})

	t.Run("out of range", func(t *testing.T) {
		f := newScoreFixture(t)
		for _, v := range []float64{-0.5, 10.01, math.NaN(), math.Inf(1)} {
			_, err := f.env.scores.CreateScore(ctx, f.member.ID, f.lunch.ID, v, "", f.member.ID)
			assert.ErrorIs(t, err, ErrScoreOutOfRange)
		}
		assert.Zero(t, f.env.fx.Count(&models.Score{}, ""))
	})

	t.Run("boundaries are accepted", func(t *testing.T) {
		f := newScoreFixture(t)
		_, err := f.env.scores.CreateScore(ctx, f.member.ID, f.lunch.ID, 0, "", f.member.ID)
		require.NoError(t, err)
		_, err = f.env.scores.CreateScore(ctx, f.admin.ID, f.lunch.ID, 10, "", f.admin.ID)
		require.NoError(t, err)
	})

	t.Run("unknown lunch", func(t *testing.T) {
		f := newScoreFixture(t)
		_, err := f.env.scores.CreateScore(ctx, f.member.ID, 999, 5, "", f.member.ID)
		assert.ErrorIs(t, err, ErrLunchNotFound)
	})

	t.Run("non-member cannot score", func(t *testing.T) {
		f := newScoreFixture(t)
		outsider := f.env.fx.User("erik")
		_, err := f.env.scores.CreateScore(ctx, outsider.ID, f.lunch.ID, 5, "", outsider.ID)
		assert.ErrorIs(t, err, ErrNotGroupMember)
	})

	t.Run("admin scores for anonymous member", func(t *testing.T) {
		f := newScoreFixture(t)
		guest := f.env.fx.Anonymous("gäst", f.admin.ID)
		f.env.fx.Member(f.group.ID, guest.ID, models.MemberRoleMember)

		score, err := f.env.scores.CreateScore(ctx, guest.ID, f.lunch.ID, 6, "", f.admin.ID)
		require.NoError(t, err)
		assert.Equal(t, guest.ID, score.UserID)

		_, err = f.env.scores.CreateScore(ctx, guest.ID, f.lunch.ID, 6, "", f.member.ID)
		assert.ErrorIs(t, err, ErrProxyScoreDenied)
	})

	t.Run("nobody scores for a registered member", func(t *testing.T) {
		f := newScoreFixture(t)
		_, err := f.env.scores.CreateScore(ctx, f.member.ID, f.lunch.ID, 6, "", f.admin.ID)
		assert.ErrorIs(t, err, ErrProxyScoreDenied)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestProperty_ScoreRange(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property test in short mode")
	}

	ctx := context.Background()
	f := newScoreFixture(t)

	rapid.Check(t, func(rt *rapid.T) {
		value := rapid.Float64Range(-100, 100).Draw(rt, "score")

		score, err := f.env.scores.CreateScore(ctx, f.member.ID, f.lunch.ID, value, "", f.member.ID)
		if value < 0 || value > 10 {
			if err == nil {
				rt.Fatalf("score %v accepted", value)
			}
			return
		}
		if err != nil {
			rt.Fatalf("score %v rejected: %v", value, err)
		}
		if score.Score != value {
			rt.Fatalf("stored %v, want %v", score.Score, value)
		}
	})

	var outside int64
	f.env.db.Model(&models.Score{}).Where("score < 0 OR score > 10").Count(&outside)
	assert.Zero(t, outside)
}

func TestDeleteScore(t *testing.T) {
	ctx := context.Background()
	f := newScoreFixture(t)
	score := f.env.fx.Score(f.lunch.ID, f.member.ID, 7)

	err := f.env.scores.DeleteScore(ctx, score.ID, f.admin.ID)
	assert.ErrorIs(t, err, ErrNotScoreAuthor)
	assert.Equal(t, int64(1), f.env.fx.Count(&models.Score{}, "id = ? AND score = ?", score.ID, 7.0))

	require.NoError(t, f.env.scores.DeleteScore(ctx, score.ID, f.member.ID))
	assert.Zero(t, f.env.fx.Count(&models.Score{}, "id = ?", score.ID))

	err = f.env.scores.DeleteScore(ctx, score.ID, f.member.ID)
	assert.ErrorIs(t, err, ErrScoreNotFound)
}

func TestProperty_DeleteScoreOnlyByAuthor(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property test in short mode")
	}

	ctx := context.Background()
	f := newScoreFixture(t)
	score := f.env.fx.Score(f.lunch.ID, f.member.ID, 5)

	rapid.Check(t, func(rt *rapid.T) {
		caller := rapid.UintRange(1, 1000).Filter(func(id uint) bool { return id != f.member.ID }).Draw(rt, "caller")
		if err := f.env.scores.DeleteScore(ctx, score.ID, caller); err == nil {
			rt.Fatalf("caller %d deleted someone else's score", caller)
		}
	})
	assert.Equal(t, int64(1), f.env.fx.Count(&models.Score{}, "id = ?", score.ID))
}

func TestCreateScoreRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("idempotent and notifies once", func(t *testing.T) {
		f := newScoreFixture(t)

		first, err := f.env.scores.CreateScoreRequest(ctx, f.member.ID, f.lunch.ID, f.admin.ID)
		require.NoError(t, err)
		second, err := f.env.scores.CreateScoreRequest(ctx, f.member.ID, f.lunch.ID, f.admin.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, int64(1), f.env.fx.Count(&models.ScoreRequest{}, "lunch_id = ? AND user_id = ?", f.lunch.ID, f.member.ID))

		events := f.env.notifier.Events()
		require.Len(t, events, 1)
		assert.Equal(t, notify.EventScoreRequestCreated, events[0].Type)
		assert.Equal(t, f.lunch.ID, events[0].LunchID)
		assert.Equal(t, f.admin.ID, events[0].ActorID)
	})

	t.Run("target already scored", func(t *testing.T) {
		f := newScoreFixture(t)
		f.env.fx.Score(f.lunch.ID, f.member.ID, 3)
		_, err := f.env.scores.CreateScoreRequest(ctx, f.member.ID, f.lunch.ID, f.admin.ID)
		assert.ErrorIs(t, err, ErrAlreadyScored)
	})

	t.Run("target not in group", func(t *testing.T) {
		f := newScoreFixture(t)
		outsider := f.env.fx.User("erik")
		_, err := f.env.scores.CreateScoreRequest(ctx, outsider.ID, f.lunch.ID, f.admin.ID)
		assert.ErrorIs(t, err, ErrTargetNotMember)
	})

	t.Run("requester not in group", func(t *testing.T) {
		f := newScoreFixture(t)
		outsider := f.env.fx.User("erik")
		_, err := f.env.scores.CreateScoreRequest(ctx, f.member.ID, f.lunch.ID, outsider.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown lunch", func(t *testing.T) {
		f := newScoreFixture(t)
		_, err := f.env.scores.CreateScoreRequest(ctx, f.member.ID, 999, f.admin.ID)
		assert.ErrorIs(t, err, ErrLunchNotFound)
	})
}

func TestProperty_NoSelfScoreRequest(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property test in short mode")
	}

	ctx := context.Background()
	f := newScoreFixture(t)

	rapid.Check(t, func(rt *rapid.T) {
		user := rapid.UintRange(1, 1000).Draw(rt, "user")
		lunch := rapid.SampledFrom([]uint{f.lunch.ID, 0, 12345}).Draw(rt, "lunch")

		_, err := f.env.scores.CreateScoreRequest(ctx, user, lunch, user)
		if !errors.Is(err, ErrInvalidArgument) {
			rt.Fatalf("self request for user %d: got %v", user, err)
		}
	})
	assert.Zero(t, f.env.fx.Count(&models.ScoreRequest{}, ""))
}

func TestDeleteScoreRequest(t *testing.T) {
	ctx := context.Background()
	f := newScoreFixture(t)
	other := f.env.fx.User("erik")
	f.env.fx.Member(f.group.ID, other.ID, models.MemberRoleMember)

	req := f.env.fx.ScoreRequest(f.lunch.ID, f.member.ID, f.admin.ID)
	err := f.env.scores.DeleteScoreRequest(ctx, req.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotRequestParty)
	assert.Equal(t, int64(1), f.env.fx.Count(&models.ScoreRequest{}, "id = ?", req.ID))

	require.NoError(t, f.env.scores.DeleteScoreRequest(ctx, req.ID, f.member.ID))
	assert.ErrorIs(t, f.env.scores.DeleteScoreRequest(ctx, req.ID, f.member.ID), ErrRequestNotFound)

	byRequester := f.env.fx.ScoreRequest(f.lunch.ID, other.ID, f.admin.ID)
	require.NoError(t, f.env.scores.DeleteScoreRequest(ctx, byRequester.ID, f.admin.ID))
}

func TestListScoreRequests(t *testing.T) {
	ctx := context.Background()
	f := newScoreFixture(t)
	lunch2 := f.env.fx.Lunch(f.group.ID, f.admin.ID)
	f.env.fx.ScoreRequest(f.lunch.ID, f.member.ID, f.admin.ID)
	f.env.fx.ScoreRequest(lunch2.ID, f.member.ID, f.admin.ID)

	reqs, err := f.env.scores.ListScoreRequests(ctx, f.member.ID)
	require.NoError(t, err)
	assert.Len(t, reqs, 2)

	reqs, err = f.env.scores.ListScoreRequests(ctx, f.admin.ID)
	require.NoError(t, err)
	assert.Empty(t, reqs)
}
