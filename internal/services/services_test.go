package services

import (
	"context"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/Gopher0727/Fredagslunchen/internal/notify"
	"github.com/Gopher0727/Fredagslunchen/internal/repositories"
	"github.com/Gopher0727/Fredagslunchen/internal/testutil"
	"github.com/Gopher0727/Fredagslunchen/middleware/jwt"
	logger "github.com/Gopher0727/Fredagslunchen/middleware/log"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Notify(_ context.Context, ev notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) Events() []notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Event(nil), n.events...)
}

type testEnv struct {
	db       *gorm.DB
	fx       *testutil.Fixtures
	notifier *recordingNotifier

	users      *UserService
	groups     *GroupService
	membership *MembershipService
	invites    *InviteService
	lunches    *LunchService
	scores     *ScoreService
	admin      *AdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	log := logger.NewNop()
	notifier := &recordingNotifier{}

	tx := repositories.NewTransactor(db)
	userRepo := repositories.NewUserRepository(db, nil)
	groupRepo := repositories.NewGroupRepository(db)
	lunchRepo := repositories.NewLunchRepository(db)
	statsRepo := repositories.NewStatsRepository(db, nil, 0)

	return &testEnv{
		db:       db,
		fx:       testutil.NewFixtures(t, db),
		notifier: notifier,

		users:      NewUserService(userRepo, jwt.NewTokenManager("test-secret", 1, 24)),
		groups:     NewGroupService(tx, userRepo, groupRepo, lunchRepo, log),
		membership: NewMembershipService(tx, userRepo, groupRepo, lunchRepo, log),
		invites:    NewInviteService(userRepo, groupRepo, notifier, log),
		lunches:    NewLunchService(tx, groupRepo, lunchRepo),
		scores:     NewScoreService(tx, userRepo, groupRepo, lunchRepo, notifier, log),
		admin:      NewAdminService(statsRepo),
	}
}
