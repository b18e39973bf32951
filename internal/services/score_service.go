package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Gopher0727/Fredagslunchen/internal/models"
	"github.com/Gopher0727/Fredagslunchen/internal/notify"
	"github.com/Gopher0727/Fredagslunchen/internal/repositories"
	logger "github.com/Gopher0727/Fredagslunchen/middleware/log"
)

// ScoreService 评分与评分请求
type ScoreService struct {
	tx       *repositories.Transactor
	users    *repositories.UserRepository
	groups   *repositories.GroupRepository
	lunches  *repositories.LunchRepository
	notifier notify.Notifier
	log      *logger.Logger
}

func NewScoreService(
	tx *repositories.Transactor,
	users *repositories.UserRepository,
	groups *repositories.GroupRepository,
	lunches *repositories.LunchRepository,
	notifier notify.Notifier,
	log *logger.Logger,
) *ScoreService {
	return &ScoreService{tx: tx, users: users, groups: groups, lunches: lunches, notifier: notifier, log: log}
}

// SubmitScoreRequest 评分请求体，UserID 为空表示给自己评分
type SubmitScoreRequest struct {
	UserID  uint     `json:"user_id"`
	Score   *float64 `json:"score" binding:"required"`
	Comment string   `json:"comment" binding:"max=1000"`
}

// RequestScoreRequest 请求他人评分的请求体
type RequestScoreRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// ValidScore 分数必须落在 [MinScore, MaxScore] 内，NaN 不合法
func ValidScore(score float64) bool {
	return score >= models.MinScore && score <= models.MaxScore
}

// lunchGroup 获取午餐及其所属群组 ID
func (s *ScoreService) lunchGroup(ctx context.Context, lunchID uint) (*models.Lunch, uint, error) {
	lunch, err := s.lunches.GetLunch(ctx, lunchID)
	if err != nil {
		return nil, 0, notFound(err, ErrLunchNotFound, "get lunch")
	}
	return lunch, lunch.GroupLocation.GroupID, nil
}

// CreateScore 为午餐评分
// 每个 (lunch, user) 只保留一条评分，重复提交覆盖分数与评论；同时删除对应的评分请求
// 管理员可以代替群组里的匿名成员评分
func (s *ScoreService) CreateScore(ctx context.Context, userID, lunchID uint, score float64, comment string, requestedByID uint) (*models.Score, error) {
	if !ValidScore(score) {
		return nil, ErrScoreOutOfRange
	}

	_, groupID, err := s.lunchGroup(ctx, lunchID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.groups, groupID, userID); err != nil {
		return nil, err
	}
	if requestedByID != userID {
		if err := s.checkProxy(ctx, groupID, userID, requestedByID); err != nil {
			s.log.DebugContext(ctx, "proxy score denied",
				zap.Uint("lunch_id", lunchID), zap.Uint("user_id", userID), zap.Uint("requested_by", requestedByID))
			return nil, err
		}
	}

	record := &models.Score{
		LunchID: lunchID,
		UserID:  userID,
		Score:   score,
		Comment: comment,
	}
	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		lunches := s.lunches.WithTx(tx)
		if err := lunches.UpsertScore(ctx, record); err != nil {
			return err
		}
		_, err := lunches.DeleteScoreRequestFor(ctx, lunchID, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create score: %w", err)
	}
	return record, nil
}

// checkProxy 只有群组管理员可以代替匿名成员评分
func (s *ScoreService) checkProxy(ctx context.Context, groupID, userID, requestedByID uint) error {
	if _, err := requireAdmin(ctx, s.groups, groupID, requestedByID); err != nil {
		return ErrProxyScoreDenied
	}
	rater, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return notFound(err, ErrUserNotFound, "get user")
	}
	if !rater.Anonymous {
		return ErrProxyScoreDenied
	}
	return nil
}

// DeleteScore 删除评分，只有评分者本人可以删除
func (s *ScoreService) DeleteScore(ctx context.Context, scoreID, requestedByID uint) error {
	score, err := s.lunches.GetScore(ctx, scoreID)
	if err != nil {
		return notFound(err, ErrScoreNotFound, "get score")
	}
	if score.UserID != requestedByID {
		s.log.DebugContext(ctx, "delete score denied", zap.Uint("score_id", scoreID), zap.Uint("requested_by", requestedByID))
		return ErrNotScoreAuthor
	}
	if err := s.lunches.DeleteScore(ctx, scoreID); err != nil {
		return fmt.Errorf("delete score: %w", err)
	}
	return nil
}

// CreateScoreRequest 请求群组成员为午餐评分，重复请求返回已有记录
func (s *ScoreService) CreateScoreRequest(ctx context.Context, targetUserID, lunchID, requestedByID uint) (*models.ScoreRequest, error) {
	if targetUserID == requestedByID {
		return nil, ErrSelfScoreRequest
	}

	_, groupID, err := s.lunchGroup(ctx, lunchID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.groups, groupID, requestedByID); err != nil {
		return nil, err
	}
	isMember, err := s.groups.IsMember(ctx, groupID, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if !isMember {
		return nil, ErrTargetNotMember
	}
	scored, err := s.lunches.HasScore(ctx, lunchID, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("check score: %w", err)
	}
	if scored {
		return nil, ErrAlreadyScored
	}

	req := &models.ScoreRequest{
		LunchID:       lunchID,
		UserID:        targetUserID,
		RequestedByID: requestedByID,
	}
	created, err := s.lunches.UpsertScoreRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("upsert score request: %w", err)
	}

	if created {
		ev := notify.Event{
			Type:    notify.EventScoreRequestCreated,
			GroupID: groupID,
			LunchID: lunchID,
			UserID:  targetUserID,
			ActorID: requestedByID,
		}
		if target, err := s.users.GetByID(ctx, targetUserID); err == nil && target.Email != nil {
			ev.Email = *target.Email
		}
		s.notifier.Notify(ctx, ev)
	}
	return req, nil
}

// DeleteScoreRequest 取消评分请求，请求者或被请求者可以操作
func (s *ScoreService) DeleteScoreRequest(ctx context.Context, requestID, requestedByID uint) error {
	req, err := s.lunches.GetScoreRequest(ctx, requestID)
	if err != nil {
		return notFound(err, ErrRequestNotFound, "get score request")
	}
	if req.RequestedByID != requestedByID && req.UserID != requestedByID {
		s.log.DebugContext(ctx, "delete score request denied", zap.Uint("request_id", requestID), zap.Uint("requested_by", requestedByID))
		return ErrNotRequestParty
	}
	if err := s.lunches.DeleteScoreRequest(ctx, requestID); err != nil {
		return fmt.Errorf("delete score request: %w", err)
	}
	return nil
}

// ListScoreRequests 指向用户的待处理评分请求
func (s *ScoreService) ListScoreRequests(ctx context.Context, userID uint) ([]models.ScoreRequest, error) {
	reqs, err := s.lunches.ListScoreRequestsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list score requests: %w", err)
	}
	return reqs, nil
}
