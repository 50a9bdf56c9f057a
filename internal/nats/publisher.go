package nats

import (
	"context"
	"encoding/json"
	"log/slog"

	"sudooom.mahjong.logic/pkg/proto"
)

// Conn 发布所需的最小连接接口，*nats.Conn 满足该接口
type Conn interface {
	Publish(subject string, data []byte) error
}

// MessagePublisher 消息发布器
type MessagePublisher struct {
	nc     Conn
	logger *slog.Logger
}

// NewMessagePublisher 创建消息发布器
func NewMessagePublisher(nc Conn) *MessagePublisher {
	return &MessagePublisher{
		nc:     nc,
		logger: slog.Default().With("component", "Publisher"),
	}
}

func (p *MessagePublisher) publish(ctx context.Context, subject string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		p.logger.Error("Failed to marshal message", "error", err, "subject", subject)
		return err
	}
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish message", "error", err, "subject", subject)
		return err
	}
	p.logger.Debug("Published message", "subject", subject, "size", len(data))
	return nil
}

// PublishRoomEvent 广播房间事件
func (p *MessagePublisher) PublishRoomEvent(ctx context.Context, roomID string, event *proto.GameEvent) error {
	return p.publish(ctx, BuildRoomEventsSubject(roomID), event)
}

// PublishSeatEvent 发送座位私有事件
func (p *MessagePublisher) PublishSeatEvent(ctx context.Context, roomID string, seat int, event *proto.GameEvent) error {
	return p.publish(ctx, BuildSeatSubject(roomID, seat), event)
}

// PublishReply 把请求应答推送到请求来源的 Access 节点
func (p *MessagePublisher) PublishReply(ctx context.Context, accessNodeId string, reply *proto.GameReply) error {
	msg := &proto.DownstreamMessage{
		Payload: proto.DownstreamPayload{GameReply: reply},
	}
	return p.publish(ctx, BuildAccessDownstreamSubject(accessNodeId), msg)
}
