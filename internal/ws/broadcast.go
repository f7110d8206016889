package ws

import (
	"context"
	"encoding/json"
	"sync"

	"questhub/internal/logger"
	"questhub/internal/model"

	"go.uber.org/zap"
)

// DeliveryStatus 单连接投递结果
type DeliveryStatus int

const (
	// Delivered 已进入连接发送队列
	Delivered DeliveryStatus = iota
	// SkippedClosed 连接已关闭，跳过
	SkippedClosed
	// Failed 投递失败（发送队列已满等）
	Failed
)

// SendResult 单连接投递结果明细
type SendResult struct {
	ConnID    string
	UserID    int64
	SessionID string
	Status    DeliveryStatus
	Err       error
}

// DeliveryReport 一次扇出的投递汇总
type DeliveryReport struct {
	Delivered int
	Skipped   int
	Failed    int
	Results   []SendResult
}

// MembershipSource 团队成员关系来源（外部存储协作方）
// 每次广播实时读取成员快照，不做本地缓存，
// 成员变更在下一次发送即生效
type MembershipSource interface {
	GetTeamMembers(ctx context.Context, teamID int64) ([]model.TeamMember, error)
}

// Broadcaster 团队广播引擎
// 投递是尽力而为的：单个连接失败不会中断对其余连接的扇出
type Broadcaster struct {
	registry *Registry
	members  MembershipSource
	logger   logger.Logger
	metrics  Metrics
	workers  int
}

// NewBroadcaster 创建广播引擎
func NewBroadcaster(registry *Registry, members MembershipSource, log logger.Logger, config *Config) *Broadcaster {
	metrics := config.Metrics
	if metrics == nil {
		metrics = &NoopMetrics{}
	}
	return &Broadcaster{
		registry: registry,
		members:  members,
		logger:   log,
		metrics:  metrics,
		workers:  config.BroadcastWorkers,
	}
}

// BroadcastToTeam 向团队全部在线成员广播
// 成员关系从存储实时解析；不在线的成员直接跳过（无离线投递）
func (b *Broadcaster) BroadcastToTeam(ctx context.Context, teamID int64, envelope any) (*DeliveryReport, error) {
	members, err := b.members.GetTeamMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}

	var conns []*Conn
	for _, member := range members {
		conns = append(conns, b.registry.ConnectionsFor(member.UserID)...)
	}

	report, err := b.fanOut(conns, envelope)
	if err != nil {
		return nil, err
	}

	b.logger.Debug("team broadcast",
		zap.Int64("team_id", teamID),
		zap.Int("delivered", report.Delivered),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// SendToUser 向单个用户的全部在线连接投递
func (b *Broadcaster) SendToUser(userID int64, envelope any) (*DeliveryReport, error) {
	return b.fanOut(b.registry.ConnectionsFor(userID), envelope)
}

// BroadcastGlobal 向全部在线连接广播（系统公告用，聊天不走此路径）
func (b *Broadcaster) BroadcastGlobal(envelope any) (*DeliveryReport, error) {
	return b.fanOut(b.registry.All(), envelope)
}

// fanOut 用有界 worker 池向一组连接投递序列化后的信封
// 收集每个连接的投递结果用于观测
func (b *Broadcaster) fanOut(conns []*Conn, envelope any) (*DeliveryReport, error) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, err
	}

	report := &DeliveryReport{}
	if len(conns) == 0 {
		return report, nil
	}

	workerCount := b.workers
	if len(conns) < workerCount {
		workerCount = len(conns)
	}

	jobs := make(chan *Conn, len(conns))
	for _, conn := range conns {
		jobs <- conn
	}
	close(jobs)

	results := make(chan SendResult, len(conns))

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for conn := range jobs {
				results <- b.deliver(conn, payload)
			}
		}()
	}
	wg.Wait()
	close(results)

	for result := range results {
		report.Results = append(report.Results, result)
		switch result.Status {
		case Delivered:
			report.Delivered++
		case SkippedClosed:
			report.Skipped++
		case Failed:
			report.Failed++
			b.logger.Warn("delivery failed",
				zap.String("conn_id", result.ConnID),
				zap.Int64("user_id", result.UserID),
				zap.Error(result.Err),
			)
		}
	}

	b.metrics.IncrementDeliveredMessages(report.Delivered)
	b.metrics.IncrementDroppedMessages(report.Failed)
	return report, nil
}

// deliver 向单个连接投递，失败不外溢
func (b *Broadcaster) deliver(conn *Conn, payload []byte) SendResult {
	result := SendResult{
		ConnID:    conn.ID,
		UserID:    conn.UserID,
		SessionID: conn.SessionID,
	}

	if !conn.IsOpen() {
		result.Status = SkippedClosed
		return result
	}

	if err := conn.Send(payload); err != nil {
		if err == ErrConnectionClosed {
			result.Status = SkippedClosed
		} else {
			result.Status = Failed
			result.Err = err
		}
		return result
	}

	result.Status = Delivered
	return result
}
