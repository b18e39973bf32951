package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Gopher0727/Fredagslunchen/internal/models"
	"github.com/Gopher0727/Fredagslunchen/internal/repositories"
	"github.com/Gopher0727/Fredagslunchen/internal/utils"
	"github.com/Gopher0727/Fredagslunchen/middleware/jwt"
)

type UserService struct {
	users  *repositories.UserRepository
	tokens *jwt.TokenManager
}

func NewUserService(users *repositories.UserRepository, tokens *jwt.TokenManager) *UserService {
	return &UserService{users: users, tokens: tokens}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest 修改资料请求
type UpdateProfileRequest struct {
	Name     string `json:"name" binding:"required"`
	AvatarID int    `json:"avatar_id" binding:"min=0"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	email := utils.NormalizeEmail(req.Email)
	if !utils.ValidateEmail(email) {
		return nil, ErrInvalidEmail
	}
	name, err := checkName(req.Name, maxUserNameLen)
	if err != nil {
		return nil, err
	}
	if !utils.ValidatePassword(req.Password) {
		return nil, ErrWeakPassword
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        &email,
		PasswordHash: &hash,
		Role:         models.UserRoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login 校验邮箱和密码并签发 token，匿名用户没有密码，不能登录
func (s *UserService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, utils.NormalizeEmail(req.Email))
	if err != nil {
		return nil, notFound(err, ErrBadCredentials, "get user")
	}
	if user.PasswordHash == nil || !utils.CheckPassword(*user.PasswordHash, req.Password) {
		return nil, ErrBadCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Name, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &LoginResponse{Token: token, User: user}, nil
}

// RefreshToken 在刷新窗口内换发 token，新 token 按用户当前资料签发
// 用户已被删除时同样拒绝
func (s *UserService) RefreshToken(ctx context.Context, token string) (*LoginResponse, error) {
	claims, err := s.tokens.RefreshClaims(token)
	if err != nil {
		if errors.Is(err, jwt.ErrRefreshTooEarly) {
			return nil, ErrRefreshTooEarly
		}
		return nil, ErrTokenNotRenewable
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, notFound(err, ErrTokenNotRenewable, "get user")
	}
	fresh, err := s.tokens.GenerateToken(user.ID, user.Name, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &LoginResponse{Token: fresh, User: user}, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "get user")
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, req *UpdateProfileRequest) (*models.User, error) {
	name, err := checkName(req.Name, maxUserNameLen)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, notFound(err, ErrUserNotFound, "get user")
	}
	if err := s.users.UpdateProfile(ctx, userID, name, req.AvatarID); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.GetProfile(ctx, userID)
}
