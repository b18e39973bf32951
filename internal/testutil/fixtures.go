package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/Gopher0727/Fredagslunchen/internal/models"
)

// Fixtures 直接向数据库写入测试数据，绕过业务校验
type Fixtures struct {
	t   *testing.T
	db  *gorm.DB
	seq int
	now time.Time
}

func NewFixtures(t *testing.T, db *gorm.DB) *Fixtures {
	return &Fixtures{t: t, db: db, now: time.Now().Add(-time.Hour)}
}

func (f *Fixtures) create(value any) {
	f.t.Helper()
	if err := f.db.Create(value).Error; err != nil {
		f.t.Fatalf("create fixture %T: %v", value, err)
	}
}

// tick 单调递增的时间，保证加入顺序可预测
func (f *Fixtures) tick() time.Time {
	f.seq++
	return f.now.Add(time.Duration(f.seq) * time.Second)
}

// User 创建带邮箱的普通用户
func (f *Fixtures) User(name string) *models.User {
	f.t.Helper()
	f.seq++
	email := fmt.Sprintf("%s.%d@example.com", name, f.seq)
	user := &models.User{Name: name, Email: &email, Role: models.UserRoleUser}
	f.create(user)
	return user
}

// SiteAdmin 创建站点管理员
func (f *Fixtures) SiteAdmin(name string) *models.User {
	f.t.Helper()
	user := f.User(name)
	if err := f.db.Model(user).Update("role", models.UserRoleAdmin).Error; err != nil {
		f.t.Fatalf("promote site admin: %v", err)
	}
	user.Role = models.UserRoleAdmin
	return user
}

// Anonymous 创建匿名用户
func (f *Fixtures) Anonymous(name string, createdBy uint) *models.User {
	f.t.Helper()
	user := &models.User{Name: name, Role: models.UserRoleUser, Anonymous: true, CreatedByID: &createdBy}
	f.create(user)
	return user
}

// Group 创建群组，admin 成为管理员
func (f *Fixtures) Group(name string, admin *models.User) *models.Group {
	f.t.Helper()
	group := &models.Group{Name: name}
	f.create(group)
	f.Member(group.ID, admin.ID, models.MemberRoleAdmin)
	return group
}

// Member 加入群组
func (f *Fixtures) Member(groupID, userID uint, role string) *models.GroupMember {
	f.t.Helper()
	member := &models.GroupMember{GroupID: groupID, UserID: userID, Role: role, JoinedAt: f.tick()}
	f.create(member)
	return member
}

// GroupLocation 创建地点并关联到群组
func (f *Fixtures) GroupLocation(groupID, discoveredBy uint) *models.GroupLocation {
	f.t.Helper()
	location := &models.Location{Name: fmt.Sprintf("Place %d", f.tick().Unix()), City: "Stockholm", Lat: 59.33, Lon: 18.06}
	f.create(location)
	gl := &models.GroupLocation{GroupID: groupID, LocationID: location.ID, DiscoveredByID: discoveredBy}
	f.create(gl)
	gl.Location = location
	return gl
}

// Lunch 在群组的新地点上创建一次午餐
func (f *Fixtures) Lunch(groupID, chooserID uint) *models.Lunch {
	f.t.Helper()
	gl := f.GroupLocation(groupID, chooserID)
	lunch := &models.Lunch{GroupLocationID: gl.ID, Date: f.tick(), ChoosenByID: chooserID}
	f.create(lunch)
	return lunch
}

func (f *Fixtures) Score(lunchID, userID uint, value float64) *models.Score {
	f.t.Helper()
	score := &models.Score{LunchID: lunchID, UserID: userID, Score: value}
	f.create(score)
	return score
}

func (f *Fixtures) ScoreRequest(lunchID, userID, requestedBy uint) *models.ScoreRequest {
	f.t.Helper()
	req := &models.ScoreRequest{LunchID: lunchID, UserID: userID, RequestedByID: requestedBy}
	f.create(req)
	return req
}

func (f *Fixtures) Invite(groupID, userID, createdBy uint) *models.InviteToken {
	f.t.Helper()
	invite := &models.InviteToken{
		Token:       fmt.Sprintf("token-%d-%d-%d", groupID, userID, f.tick().UnixNano()),
		GroupID:     groupID,
		UserID:      userID,
		CreatedByID: createdBy,
	}
	f.create(invite)
	return invite
}

// Count 统计满足条件的行数
func (f *Fixtures) Count(model any, query string, args ...any) int64 {
	f.t.Helper()
	var n int64
	q := f.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		f.t.Fatalf("count %T: %v", model, err)
	}
	return n
}
