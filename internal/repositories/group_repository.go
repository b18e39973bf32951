package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Gopher0727/Fredagslunchen/internal/models"
)

// GroupRepository 群组、成员关系与邀请
type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) WithTx(tx *gorm.DB) *GroupRepository {
	return &GroupRepository{db: tx}
}

// Create 创建群组
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

// GetByID 根据 ID 获取群组
func (r *GroupRepository) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// LockGroup 在当前事务中对群组行加写锁 (SELECT ... FOR UPDATE)
// 同一群组的成员变更因此串行执行；SQLite 不支持行锁，子句会被忽略
func (r *GroupRepository) LockGroup(ctx context.Context, groupID uint) error {
	var group models.Group
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Select("id").
		First(&group, groupID).Error
}

// ListByUser 获取用户所在的所有群组
func (r *GroupRepository) ListByUser(ctx context.Context, userID uint) ([]models.Group, error) {
	db := r.db.WithContext(ctx)
	groupIDs := db.Model(&models.GroupMember{}).Select("group_id").Where("user_id = ?", userID)

	var groups []models.Group
	err := db.Where("id IN (?)", groupIDs).Order("id").Find(&groups).Error
	return groups, err
}

// Delete 删除群组及其所有从属数据
// 按外键依赖从叶子到根删除：评分请求、评分、午餐、群组地点、邀请、成员，最后是群组本身
func (r *GroupRepository) Delete(ctx context.Context, groupID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lunchIDs := groupLunchIDs(tx, groupID)

		if err := tx.Where("lunch_id IN (?)", lunchIDs).Delete(&models.ScoreRequest{}).Error; err != nil {
			return err
		}
		if err := tx.Where("lunch_id IN (?)", lunchIDs).Delete(&models.Score{}).Error; err != nil {
			return err
		}
		groupLocationIDs := tx.Model(&models.GroupLocation{}).Select("id").Where("group_id = ?", groupID)
		if err := tx.Where("group_location_id IN (?)", groupLocationIDs).Delete(&models.Lunch{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", groupID).Delete(&models.GroupLocation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", groupID).Delete(&models.InviteToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", groupID).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Group{}, groupID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// groupLunchIDs 子查询：群组下所有午餐的 ID
func groupLunchIDs(db *gorm.DB, groupID uint) *gorm.DB {
	return db.Model(&models.Lunch{}).
		Select("lunches.id").
		Joins("JOIN group_locations ON group_locations.id = lunches.group_location_id").
		Where("group_locations.group_id = ?", groupID)
}

// GetMember 获取成员关系，不存在时返回 gorm.ErrRecordNotFound
func (r *GroupRepository) GetMember(ctx context.Context, groupID, userID uint) (*models.GroupMember, error) {
	var member models.GroupMember
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// IsMember 检查用户是否是群组成员
func (r *GroupRepository) IsMember(ctx context.Context, groupID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

// ListMembers 获取群组成员（预加载用户），按加入时间排序
func (r *GroupRepository) ListMembers(ctx context.Context, groupID uint) ([]models.GroupMember, error) {
	var members []models.GroupMember
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Preload("User").
		Order("joined_at, id").
		Find(&members).Error
	return members, err
}

// AddMember 插入成员关系，重复时返回 gorm.ErrDuplicatedKey（需开启 TranslateError）
func (r *GroupRepository) AddMember(ctx context.Context, member *models.GroupMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// EnsureMember 插入成员关系，已存在时什么也不做
func (r *GroupRepository) EnsureMember(ctx context.Context, member *models.GroupMember) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(member).Error
}

// DeleteMember 删除成员关系，返回删除的行数
func (r *GroupRepository) DeleteMember(ctx context.Context, groupID, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{})
	return res.RowsAffected, res.Error
}

// CountMembers 统计群组成员数，role 为空时统计全部
func (r *GroupRepository) CountMembers(ctx context.Context, groupID uint, role string) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.GroupMember{}).Where("group_id = ?", groupID)
	if role != "" {
		query = query.Where("role = ?", role)
	}
	err := query.Count(&count).Error
	return count, err
}

// OldestMemberExcept 获取除 userID 以外最早加入的成员
func (r *GroupRepository) OldestMemberExcept(ctx context.Context, groupID, userID uint) (*models.GroupMember, error) {
	var member models.GroupMember
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id <> ?", groupID, userID).
		Order("joined_at, id").
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// UpdateMemberRole 修改成员角色
func (r *GroupRepository) UpdateMemberRole(ctx context.Context, memberID uint, role string) error {
	return r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("id = ?", memberID).
		Update("role", role).Error
}

// UpsertInvite 按 (group_id, user_id) 插入邀请
// 已存在时不覆盖，invite 被替换为已有记录，created 返回 false
func (r *GroupRepository) UpsertInvite(ctx context.Context, invite *models.InviteToken) (bool, error) {
	db := r.db.WithContext(ctx)
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "group_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(invite)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	var existing models.InviteToken
	if err := db.Where("group_id = ? AND user_id = ?", invite.GroupID, invite.UserID).First(&existing).Error; err != nil {
		return false, err
	}
	*invite = existing
	return false, nil
}

// DeleteInvite 删除 (group_id, user_id) 对应的邀请，不存在时不报错
func (r *GroupRepository) DeleteInvite(ctx context.Context, groupID, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.InviteToken{})
	return res.RowsAffected, res.Error
}

// GetInviteByToken 根据邀请令牌获取邀请
func (r *GroupRepository) GetInviteByToken(ctx context.Context, token string) (*models.InviteToken, error) {
	var invite models.InviteToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// ListInvitesForUser 获取用户收到的所有邀请（预加载群组）
func (r *GroupRepository) ListInvitesForUser(ctx context.Context, userID uint) ([]models.InviteToken, error) {
	var invites []models.InviteToken
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Group").
		Order("created_at desc").
		Find(&invites).Error
	return invites, err
}
