package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sudooom.mahjong.logic/internal/game/mahjong/goldmahjong"
)

const (
	// SnapshotKeyPrefix 对局快照 Redis Key 前缀
	SnapshotKeyPrefix = "mahjong:room:"

	// DefaultSnapshotTTL 快照默认过期时间
	DefaultSnapshotTTL = 2 * time.Hour
)

// ErrSnapshotNotFound 快照不存在或已过期
var ErrSnapshotNotFound = errors.New("snapshot not found")

// BuildPublicKey 构建公开状态 Key
// Key: mahjong:room:{roomId}:public
func BuildPublicKey(roomID string) string {
	return fmt.Sprintf("%s%s:public", SnapshotKeyPrefix, roomID)
}

// BuildSeatKey 构建座位私有状态 Key
// Key: mahjong:room:{roomId}:seat:{seat}
func BuildSeatKey(roomID string, seat int) string {
	return fmt.Sprintf("%s%s:seat:%d", SnapshotKeyPrefix, roomID, seat)
}

// SnapshotStore 对局快照存储，供断线重连和跨节点查询
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotStore 创建快照存储
func NewSnapshotStore(client *redis.Client, ttl time.Duration) *SnapshotStore {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &SnapshotStore{client: client, ttl: ttl}
}

func (s *SnapshotStore) set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, s.ttl).Err()
}

func (s *SnapshotStore) get(ctx context.Context, key string, v any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrSnapshotNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// SavePublic 保存公开状态
func (s *SnapshotStore) SavePublic(ctx context.Context, roomID string, state *goldmahjong.PublicState) error {
	return s.set(ctx, BuildPublicKey(roomID), state)
}

// SavePrivate 保存座位私有状态
func (s *SnapshotStore) SavePrivate(ctx context.Context, roomID string, seat int, state *goldmahjong.PrivateState) error {
	return s.set(ctx, BuildSeatKey(roomID, seat), state)
}

// LoadPublic 读取公开状态
func (s *SnapshotStore) LoadPublic(ctx context.Context, roomID string) (*goldmahjong.PublicState, error) {
	var state goldmahjong.PublicState
	if err := s.get(ctx, BuildPublicKey(roomID), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// LoadPrivate 读取座位私有状态
func (s *SnapshotStore) LoadPrivate(ctx context.Context, roomID string, seat int) (*goldmahjong.PrivateState, error) {
	var state goldmahjong.PrivateState
	if err := s.get(ctx, BuildSeatKey(roomID, seat), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Delete 删除房间的全部快照
func (s *SnapshotStore) Delete(ctx context.Context, roomID string, seats int) error {
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, BuildPublicKey(roomID))
		for seat := 0; seat < seats; seat++ {
			pipe.Del(ctx, BuildSeatKey(roomID, seat))
		}
		return nil
	})
	return err
}
