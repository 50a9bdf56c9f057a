package task

import (
	"context"
	"time"
)

// TaskFunc 任务执行函数类型
type TaskFunc func(ctx context.Context, target string, version int64) error

// Task 延迟任务
// 同一 ID 的任务重复添加时覆盖旧任务，Version 用于执行时判断任务是否已过期
type Task struct {
	ID        string    `json:"id"`        // 任务唯一ID，例如 claim:{roomId}
	Version   int64     `json:"version"`   // 版本号，对应牌局中的窗口或回合序号
	Target    string    `json:"target"`    // 操作对象标识（房间ID）
	Delay     int       `json:"delay"`     // 延迟秒数 (1-60)
	Fn        TaskFunc  `json:"-"`         // 执行函数
	CreatedAt time.Time `json:"createdAt"` // 创建时间
}

// NewTask 创建新任务
func NewTask(id, target string, version int64, delay int, fn TaskFunc) *Task {
	return &Task{
		ID:        id,
		Version:   version,
		Target:    target,
		Delay:     delay,
		Fn:        fn,
		CreatedAt: time.Now(),
	}
}

// DelaySeconds 把时长换算成时间轮的秒数，不足一秒按一秒，超过一圈按一圈
func DelaySeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	if secs > SlotCount {
		return SlotCount
	}
	return secs
}

// Execute 执行任务
func (t *Task) Execute(ctx context.Context) error {
	if t.Fn == nil {
		return nil
	}
	return t.Fn(ctx, t.Target, t.Version)
}
