// Package notify 将领域事件（邀请、评分请求）投递给外部邮件服务
// 投递是尽力而为的：失败只记录日志，不影响已提交的业务操作
package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Gopher0727/Fredagslunchen/internal/utils"
	logger "github.com/Gopher0727/Fredagslunchen/middleware/log"
	"github.com/Gopher0727/Fredagslunchen/pkg/mq"
)

const (
	EventInviteCreated       = "invite.created"
	EventScoreRequestCreated = "score_request.created"
)

// Event 通知事件，Email 为空表示收件人没有邮箱（匿名用户）
type Event struct {
	Type       string    `json:"type"`
	GroupID    uint      `json:"group_id,omitempty"`
	LunchID    uint      `json:"lunch_id,omitempty"`
	UserID     uint      `json:"user_id"`
	ActorID    uint      `json:"actor_id"`
	Email      string    `json:"email,omitempty"`
	Token      string    `json:"token,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	TraceID    string    `json:"trace_id,omitempty"`
}

// Key 同一收件人的事件落在同一分区，保证顺序
func (e Event) Key() string {
	return fmt.Sprintf("user:%d", e.UserID)
}

type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// KafkaNotifier 在协程池中把事件发布到 Kafka
type KafkaNotifier struct {
	publisher mq.Publisher
	pool      *utils.WorkerPool
	log       *logger.Logger
}

func NewKafkaNotifier(publisher mq.Publisher, pool *utils.WorkerPool, log *logger.Logger) *KafkaNotifier {
	return &KafkaNotifier{publisher: publisher, pool: pool, log: log.WithFields(zap.String("component", "notify"))}
}

func (n *KafkaNotifier) Notify(ctx context.Context, ev Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	ev.TraceID = logger.GetTraceID(ctx)

	log := n.log.WithContext(ctx)
	ok := n.pool.TrySubmit(func() {
		if err := n.publisher.SendMessage(ev.Key(), ev); err != nil {
			log.Error("publish notification failed", zap.String("type", ev.Type), zap.Uint("user_id", ev.UserID), zap.Error(err))
		}
	})
	if !ok {
		log.Warn("notification queue full, dropping event", zap.String("type", ev.Type), zap.Uint("user_id", ev.UserID))
	}
}

// LogNotifier Kafka 不可用时的降级实现，只记录日志
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log.WithFields(zap.String("component", "notify"))}
}

func (n *LogNotifier) Notify(ctx context.Context, ev Event) {
	n.log.InfoContext(ctx, "notification (not delivered)",
		zap.String("type", ev.Type),
		zap.Uint("user_id", ev.UserID),
		zap.Uint("group_id", ev.GroupID),
		zap.Uint("lunch_id", ev.LunchID),
	)
}

// Nop 丢弃所有事件
type Nop struct{}

func (Nop) Notify(context.Context, Event) {}
