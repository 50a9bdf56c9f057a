package task

import (
	"sync"
	"time"
)

const (
	// SlotCount 时间轮槽位数量 (60秒)
	SlotCount = 60
)

// TimeWheel 单层时间轮
// index 记录任务所在槽位，删除和重新调度不需要调用方记住延迟
type TimeWheel struct {
	slots       [SlotCount]*bucket
	currentSlot int
	index       map[string]int // taskID -> 槽位
	mu          sync.Mutex     // 保护 currentSlot 与 index
	ticker      *time.Ticker
}

// NewTimeWheel 创建时间轮，tick 为每格的时长
func NewTimeWheel(tick time.Duration) *TimeWheel {
	if tick <= 0 {
		tick = time.Second
	}
	tw := &TimeWheel{
		index:  make(map[string]int),
		ticker: time.NewTicker(tick),
	}
	for i := 0; i < SlotCount; i++ {
		tw.slots[i] = newBucket()
	}
	return tw
}

// AddTask 添加任务，已存在的同 ID 任务先被移除
func (tw *TimeWheel) AddTask(task *Task) {
	if task.Delay < 1 || task.Delay > SlotCount {
		task.Delay = 1
	}

	tw.mu.Lock()
	defer tw.mu.Unlock()

	if old, ok := tw.index[task.ID]; ok {
		tw.slots[old].take(task.ID)
	}
	target := (tw.currentSlot + task.Delay) % SlotCount
	tw.slots[target].put(task)
	tw.index[task.ID] = target
}

// RemoveTask 删除任务
func (tw *TimeWheel) RemoveTask(taskID string) bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	slot, ok := tw.index[taskID]
	if !ok {
		return false
	}
	delete(tw.index, taskID)
	return tw.slots[slot].take(taskID)
}

// Tick 推进一格，返回到期任务
func (tw *TimeWheel) Tick() []*Task {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	tw.currentSlot = (tw.currentSlot + 1) % SlotCount
	tasks := tw.slots[tw.currentSlot].drain()
	for _, t := range tasks {
		delete(tw.index, t.ID)
	}
	return tasks
}

// GetCurrentSlot 获取当前槽位索引
func (tw *TimeWheel) GetCurrentSlot() int {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	return tw.currentSlot
}

// Stop 停止时间轮
func (tw *TimeWheel) Stop() {
	tw.ticker.Stop()
}

// GetTicker 获取定时器
func (tw *TimeWheel) GetTicker() *time.Ticker {
	return tw.ticker
}

// GetTotalTaskCount 获取所有槽位的任务总数
func (tw *TimeWheel) GetTotalTaskCount() int {
	total := 0
	for i := 0; i < SlotCount; i++ {
		total += tw.slots[i].size()
	}
	return total
}
