package game

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Manager 游戏管理器，房间ID -> 游戏
type Manager struct {
	games sync.Map // roomId -> *Game
	count atomic.Int32

	maxGames     int
	evictTimeout time.Duration
	evictTicker  *time.Ticker
	onEvict      func(g *Game) // 淘汰前回调，由服务层设置

	stopChan chan struct{}
	stopOnce sync.Once

	logger *slog.Logger
}

// NewManager 创建游戏管理器并启动淘汰循环
func NewManager(maxGames int, evictTimeout, evictInterval time.Duration) *Manager {
	if evictInterval <= 0 {
		evictInterval = time.Minute
	}
	m := &Manager{
		maxGames:     maxGames,
		evictTimeout: evictTimeout,
		evictTicker:  time.NewTicker(evictInterval),
		stopChan:     make(chan struct{}),
		logger:       slog.Default().With("component", "GameManager"),
	}

	go m.evictLoop()

	return m
}

// SetEvictHandler 设置淘汰回调，需在启动服务前调用
func (m *Manager) SetEvictHandler(fn func(g *Game)) {
	m.onEvict = fn
}

// Create 登记新游戏
// 房间内已结束的游戏直接被替换；进行中的游戏返回 ErrGameAlreadyExists
func (m *Manager) Create(g *Game) error {
	roomID := g.RoomID()
	if val, ok := m.games.Load(roomID); ok {
		prev := val.(*Game)
		if !prev.IsFinished() || !m.games.CompareAndSwap(roomID, prev, g) {
			return ErrGameAlreadyExists
		}
		m.logger.Info("Replaced finished game", "roomId", roomID)
		return nil
	}

	if m.maxGames > 0 && int(m.count.Load()) >= m.maxGames && m.removeFinished() == 0 {
		return ErrTooManyGames
	}
	if _, loaded := m.games.LoadOrStore(roomID, g); loaded {
		return ErrGameAlreadyExists
	}
	m.count.Add(1)
	m.logger.Info("Game created", "roomId", roomID)
	return nil
}

// removeFinished 移除所有已结束的游戏，返回移除数量
func (m *Manager) removeFinished() int {
	removed := 0
	m.games.Range(func(key, value any) bool {
		g := value.(*Game)
		if g.IsFinished() && m.games.CompareAndDelete(key, g) {
			m.count.Add(-1)
			removed++
		}
		return true
	})
	if removed > 0 {
		m.logger.Info("Removed finished games", "count", removed)
	}
	return removed
}

// Get 获取游戏
func (m *Manager) Get(roomID string) (*Game, bool) {
	val, ok := m.games.Load(roomID)
	if !ok {
		return nil, false
	}
	return val.(*Game), true
}

// Remove 移除游戏
func (m *Manager) Remove(roomID string) {
	if _, loaded := m.games.LoadAndDelete(roomID); loaded {
		m.count.Add(-1)
		m.logger.Info("Removed game", "roomId", roomID)
	}
}

// Count 返回当前游戏数
func (m *Manager) Count() int {
	return int(m.count.Load())
}

func (m *Manager) evictLoop() {
	for {
		select {
		case <-m.evictTicker.C:
			m.evictInactive(time.Now())
		case <-m.stopChan:
			m.logger.Info("Evict loop stopped")
			return
		}
	}
}

// evictInactive 淘汰超时未活跃的游戏
func (m *Manager) evictInactive(now time.Time) int {
	var toEvict []*Game
	m.games.Range(func(key, value any) bool {
		g := value.(*Game)
		if now.Sub(g.LastActiveTime()) > m.evictTimeout {
			toEvict = append(toEvict, g)
		}
		return true
	})

	for _, g := range toEvict {
		if m.onEvict != nil {
			m.onEvict(g)
		}
		m.Remove(g.RoomID())
		m.logger.Info("Evicted inactive game", "roomId", g.RoomID(), "finished", g.IsFinished())
	}
	return len(toEvict)
}

// Shutdown 停止淘汰循环，对所有未结束的游戏执行淘汰回调
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down GameManager")

	m.stopOnce.Do(func() {
		close(m.stopChan)
		m.evictTicker.Stop()
	})

	var err error
	m.games.Range(func(key, value any) bool {
		if err = ctx.Err(); err != nil {
			return false
		}
		g := value.(*Game)
		if !g.IsFinished() && m.onEvict != nil {
			m.onEvict(g)
		}
		return true
	})

	m.logger.Info("GameManager shutdown complete", "games", m.Count())
	return err
}
