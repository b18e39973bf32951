package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// 错误分类，具体错误通过 %w 包装其中之一，处理器用 errors.Is 映射 HTTP 状态码
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
)

var (
	ErrUserNotFound      = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrGroupNotFound     = fmt.Errorf("%w: group not found", ErrNotFound)
	ErrMemberNotFound    = fmt.Errorf("%w: membership not found", ErrNotFound)
	ErrInviteNotFound    = fmt.Errorf("%w: invite not found", ErrNotFound)
	ErrLunchNotFound     = fmt.Errorf("%w: lunch not found", ErrNotFound)
	ErrLocationNotFound  = fmt.Errorf("%w: location not found", ErrNotFound)
	ErrScoreNotFound     = fmt.Errorf("%w: score not found", ErrNotFound)
	ErrRequestNotFound   = fmt.Errorf("%w: score request not found", ErrNotFound)
	ErrNotGroupMember    = fmt.Errorf("%w: not a member of this group", ErrForbidden)
	ErrNotGroupAdmin     = fmt.Errorf("%w: group admin required", ErrForbidden)
	ErrNotScoreAuthor    = fmt.Errorf("%w: only the author may delete a score", ErrForbidden)
	ErrNotRequestParty   = fmt.Errorf("%w: only the requester or the target may cancel a score request", ErrForbidden)
	ErrInviteNotYours    = fmt.Errorf("%w: invite belongs to another user", ErrForbidden)
	ErrAlreadyMember     = fmt.Errorf("%w: user is already a member of this group", ErrConflict)
	ErrLastMember        = fmt.Errorf("%w: cannot remove the last member, delete the group instead", ErrConflict)
	ErrAlreadyScored     = fmt.Errorf("%w: user has already scored this lunch", ErrConflict)
	ErrLocationExists    = fmt.Errorf("%w: location already added to this group", ErrConflict)
	ErrEmailTaken        = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrScoreOutOfRange   = fmt.Errorf("%w: score must be between 0 and 10", ErrInvalidArgument)
	ErrSelfScoreRequest  = fmt.Errorf("%w: cannot request a score from yourself", ErrInvalidArgument)
	ErrTargetNotMember   = fmt.Errorf("%w: target user is not a member of this group", ErrInvalidArgument)
	ErrInvalidRole       = fmt.Errorf("%w: role must be ADMIN or MEMBER", ErrInvalidArgument)
	ErrEmptyName         = fmt.Errorf("%w: name is required", ErrInvalidArgument)
	ErrNameTooLong       = fmt.Errorf("%w: name is too long", ErrInvalidArgument)
	ErrInvalidEmail      = fmt.Errorf("%w: invalid email", ErrInvalidArgument)
	ErrWeakPassword      = fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidArgument)
	ErrMissingDate       = fmt.Errorf("%w: date is required", ErrInvalidArgument)
	ErrBadCredentials    = fmt.Errorf("%w: wrong email or password", ErrUnauthorized)
	ErrTokenNotRenewable = fmt.Errorf("%w: token cannot be refreshed, log in again", ErrUnauthorized)
	ErrRefreshTooEarly   = fmt.Errorf("%w: token is not yet eligible for refresh", ErrInvalidArgument)
	ErrChooserNotMember  = fmt.Errorf("%w: chooser is not a member of this group", ErrInvalidArgument)
	ErrProxyScoreDenied  = fmt.Errorf("%w: admins may only score on behalf of anonymous members", ErrForbidden)
)

// notFound 将 gorm.ErrRecordNotFound 翻译为指定的业务错误，其余错误原样包装
func notFound(err error, target error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return fmt.Errorf("%s: %w", op, err)
}
