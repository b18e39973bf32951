package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Transactor 在一个数据库事务中执行多个仓储操作
// 回调中的仓储需通过 WithTx(tx) 绑定到该事务
type Transactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{db: db}
}

// Transaction fn 返回错误时回滚，否则提交
func (t *Transactor) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}
