package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Gopher0727/Fredagslunchen/internal/models"
)

// LunchRepository 地点、午餐、评分与评分请求
type LunchRepository struct {
	db *gorm.DB
}

func NewLunchRepository(db *gorm.DB) *LunchRepository {
	return &LunchRepository{db: db}
}

func (r *LunchRepository) WithTx(tx *gorm.DB) *LunchRepository {
	return &LunchRepository{db: tx}
}

// CreateLocation 创建地点
func (r *LunchRepository) CreateLocation(ctx context.Context, location *models.Location) error {
	return r.db.WithContext(ctx).Create(location).Error
}

// GetLocation 根据 ID 获取地点
func (r *LunchRepository) GetLocation(ctx context.Context, id uint) (*models.Location, error) {
	var location models.Location
	if err := r.db.WithContext(ctx).First(&location, id).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

// CreateGroupLocation 关联地点与群组，重复时返回 gorm.ErrDuplicatedKey
func (r *LunchRepository) CreateGroupLocation(ctx context.Context, gl *models.GroupLocation) error {
	return r.db.WithContext(ctx).Create(gl).Error
}

// GroupHasLocation 检查地点是否已被群组添加
func (r *LunchRepository) GroupHasLocation(ctx context.Context, groupID, locationID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GroupLocation{}).
		Where("group_id = ? AND location_id = ?", groupID, locationID).
		Count(&count).Error
	return count > 0, err
}

// GetGroupLocation 获取群组地点（预加载地点）
func (r *LunchRepository) GetGroupLocation(ctx context.Context, id uint) (*models.GroupLocation, error) {
	var gl models.GroupLocation
	if err := r.db.WithContext(ctx).Preload("Location").First(&gl, id).Error; err != nil {
		return nil, err
	}
	return &gl, nil
}

// ListGroupLocations 获取群组的所有地点
func (r *LunchRepository) ListGroupLocations(ctx context.Context, groupID uint) ([]models.GroupLocation, error) {
	var gls []models.GroupLocation
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Preload("Location").
		Order("id").
		Find(&gls).Error
	return gls, err
}

// CreateLunch 创建午餐
func (r *LunchRepository) CreateLunch(ctx context.Context, lunch *models.Lunch) error {
	return r.db.WithContext(ctx).Create(lunch).Error
}

// GetLunch 获取午餐（预加载所属群组地点）
func (r *LunchRepository) GetLunch(ctx context.Context, id uint) (*models.Lunch, error) {
	var lunch models.Lunch
	if err := r.db.WithContext(ctx).Preload("GroupLocation").First(&lunch, id).Error; err != nil {
		return nil, err
	}
	return &lunch, nil
}

// GetLunchWithScores 获取午餐以及地点和全部评分
func (r *LunchRepository) GetLunchWithScores(ctx context.Context, id uint) (*models.Lunch, error) {
	var lunch models.Lunch
	err := r.db.WithContext(ctx).
		Preload("GroupLocation.Location").
		Preload("Scores", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&lunch, id).Error
	if err != nil {
		return nil, err
	}
	return &lunch, nil
}

// UpsertScore 按 (lunch_id, user_id) 写入评分，已存在时覆盖分数与评论
// 写入后重新读取，score 被替换为库中的记录
func (r *LunchRepository) UpsertScore(ctx context.Context, score *models.Score) error {
	db := r.db.WithContext(ctx)
	score.UpdatedAt = time.Now()
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "lunch_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "comment", "updated_at"}),
	}).Create(score).Error
	if err != nil {
		return err
	}

	var stored models.Score
	if err := db.Where("lunch_id = ? AND user_id = ?", score.LunchID, score.UserID).First(&stored).Error; err != nil {
		return err
	}
	*score = stored
	return nil
}

// GetScore 根据 ID 获取评分
func (r *LunchRepository) GetScore(ctx context.Context, id uint) (*models.Score, error) {
	var score models.Score
	if err := r.db.WithContext(ctx).First(&score, id).Error; err != nil {
		return nil, err
	}
	return &score, nil
}

// HasScore 检查用户是否已为午餐评分
func (r *LunchRepository) HasScore(ctx context.Context, lunchID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Score{}).
		Where("lunch_id = ? AND user_id = ?", lunchID, userID).
		Count(&count).Error
	return count > 0, err
}

// DeleteScore 删除评分
func (r *LunchRepository) DeleteScore(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Score{}, id).Error
}

// DeleteUserScoresInGroup 删除用户在群组所有午餐上的评分，返回删除的行数
func (r *LunchRepository) DeleteUserScoresInGroup(ctx context.Context, groupID, userID uint) (int64, error) {
	db := r.db.WithContext(ctx)
	res := db.Where("user_id = ? AND lunch_id IN (?)", userID, groupLunchIDs(db, groupID)).
		Delete(&models.Score{})
	return res.RowsAffected, res.Error
}

// UpsertScoreRequest 按 (lunch_id, user_id) 插入评分请求
// 已存在时不覆盖，req 被替换为已有记录，created 返回 false
func (r *LunchRepository) UpsertScoreRequest(ctx context.Context, req *models.ScoreRequest) (bool, error) {
	db := r.db.WithContext(ctx)
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "lunch_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(req)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	var existing models.ScoreRequest
	if err := db.Where("lunch_id = ? AND user_id = ?", req.LunchID, req.UserID).First(&existing).Error; err != nil {
		return false, err
	}
	*req = existing
	return false, nil
}

// GetScoreRequest 根据 ID 获取评分请求
func (r *LunchRepository) GetScoreRequest(ctx context.Context, id uint) (*models.ScoreRequest, error) {
	var req models.ScoreRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// DeleteScoreRequest 删除评分请求
func (r *LunchRepository) DeleteScoreRequest(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.ScoreRequest{}, id).Error
}

// DeleteScoreRequestFor 删除针对 (lunch_id, user_id) 的评分请求，返回删除的行数
func (r *LunchRepository) DeleteScoreRequestFor(ctx context.Context, lunchID, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("lunch_id = ? AND user_id = ?", lunchID, userID).
		Delete(&models.ScoreRequest{})
	return res.RowsAffected, res.Error
}

// DeleteUserScoreRequestsInGroup 删除群组内所有指向该用户的评分请求
func (r *LunchRepository) DeleteUserScoreRequestsInGroup(ctx context.Context, groupID, userID uint) (int64, error) {
	db := r.db.WithContext(ctx)
	res := db.Where("user_id = ? AND lunch_id IN (?)", userID, groupLunchIDs(db, groupID)).
		Delete(&models.ScoreRequest{})
	return res.RowsAffected, res.Error
}

// ListScoreRequestsForUser 获取指向用户的待处理评分请求
func (r *LunchRepository) ListScoreRequestsForUser(ctx context.Context, userID uint) ([]models.ScoreRequest, error) {
	var reqs []models.ScoreRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Find(&reqs).Error
	return reqs, err
}
