package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Gopher0727/Fredagslunchen/internal/models"
	"github.com/Gopher0727/Fredagslunchen/internal/repositories"
)

const maxLocationNameLen = 100

// LunchService 群组地点与午餐
type LunchService struct {
	tx      *repositories.Transactor
	groups  *repositories.GroupRepository
	lunches *repositories.LunchRepository
}

func NewLunchService(tx *repositories.Transactor, groups *repositories.GroupRepository, lunches *repositories.LunchRepository) *LunchService {
	return &LunchService{tx: tx, groups: groups, lunches: lunches}
}

// AddLocationRequest 添加地点请求
// LocationID 非零时复用已有的公共地点，否则按其余字段新建
type AddLocationRequest struct {
	LocationID uint    `json:"location_id"`
	Name       string  `json:"name"`
	Address    string  `json:"address"`
	ZipCode    string  `json:"zip_code"`
	City       string  `json:"city"`
	Lat        float64 `json:"lat" binding:"min=-90,max=90"`
	Lon        float64 `json:"lon" binding:"min=-180,max=180"`
	Global     bool    `json:"global"`
}

// CreateLunchRequest 创建午餐请求，ChoosenByID 为空时默认为请求者
type CreateLunchRequest struct {
	GroupLocationID uint      `json:"group_location_id" binding:"required"`
	Date            time.Time `json:"date"`
	ChoosenByID     uint      `json:"choosen_by_id"`
}

// AddLocation 群组成员为群组添加地点
func (s *LunchService) AddLocation(ctx context.Context, groupID, requestedByID uint, req *AddLocationRequest) (*models.GroupLocation, error) {
	if _, err := requireMember(ctx, s.groups, groupID, requestedByID); err != nil {
		return nil, err
	}

	var location *models.Location
	if req.LocationID != 0 {
		existing, err := s.lunches.GetLocation(ctx, req.LocationID)
		if err != nil {
			return nil, notFound(err, ErrLocationNotFound, "get location")
		}
		// 非公共地点只对发现它的群组可见
		if !existing.Global {
			linked, err := s.lunches.GroupHasLocation(ctx, groupID, existing.ID)
			if err != nil {
				return nil, fmt.Errorf("check group location: %w", err)
			}
			if !linked {
				return nil, ErrLocationNotFound
			}
		}
		location = existing
	} else {
		name, err := checkName(req.Name, maxLocationNameLen)
		if err != nil {
			return nil, err
		}
		location = &models.Location{
			Name:    name,
			Address: req.Address,
			ZipCode: req.ZipCode,
			City:    req.City,
			Lat:     req.Lat,
			Lon:     req.Lon,
			Global:  req.Global,
		}
	}

	gl := &models.GroupLocation{GroupID: groupID, DiscoveredByID: requestedByID}
	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		lunches := s.lunches.WithTx(tx)
		if location.ID == 0 {
			if err := lunches.CreateLocation(ctx, location); err != nil {
				return err
			}
		}
		gl.LocationID = location.ID
		return lunches.CreateGroupLocation(ctx, gl)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrLocationExists
		}
		return nil, fmt.Errorf("add location: %w", err)
	}
	gl.Location = location
	return gl, nil
}

// CreateLunch 在群组地点安排一次午餐，请求者和选择者都必须是群组成员
func (s *LunchService) CreateLunch(ctx context.Context, req *CreateLunchRequest, requestedByID uint) (*models.Lunch, error) {
	if req.Date.IsZero() {
		return nil, ErrMissingDate
	}
	gl, err := s.lunches.GetGroupLocation(ctx, req.GroupLocationID)
	if err != nil {
		return nil, notFound(err, ErrLocationNotFound, "get group location")
	}
	if _, err := requireMember(ctx, s.groups, gl.GroupID, requestedByID); err != nil {
		return nil, err
	}

	chooser := req.ChoosenByID
	if chooser == 0 {
		chooser = requestedByID
	}
	if chooser != requestedByID {
		ok, err := s.groups.IsMember(ctx, gl.GroupID, chooser)
		if err != nil {
			return nil, fmt.Errorf("check membership: %w", err)
		}
		if !ok {
			return nil, ErrChooserNotMember
		}
	}

	lunch := &models.Lunch{
		GroupLocationID: gl.ID,
		Date:            req.Date,
		ChoosenByID:     chooser,
	}
	if err := s.lunches.CreateLunch(ctx, lunch); err != nil {
		return nil, fmt.Errorf("create lunch: %w", err)
	}
	lunch.GroupLocation = gl
	return lunch, nil
}

// GetLunch 获取午餐及其评分，仅群组成员可见
func (s *LunchService) GetLunch(ctx context.Context, lunchID, requestedByID uint) (*models.Lunch, error) {
	lunch, err := s.lunches.GetLunchWithScores(ctx, lunchID)
	if err != nil {
		return nil, notFound(err, ErrLunchNotFound, "get lunch")
	}
	if _, err := requireMember(ctx, s.groups, lunch.GroupLocation.GroupID, requestedByID); err != nil {
		return nil, err
	}
	return lunch, nil
}
