package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrSchedulerNotRunning 调度器未运行
	ErrSchedulerNotRunning = errors.New("调度器未运行")

	// ErrTaskNotFound 任务不存在
	ErrTaskNotFound = errors.New("任务不存在")
)

// Scheduler 截止任务调度器：时间轮计时，runner 按房间分 lane 执行
type Scheduler struct {
	wheel      *TimeWheel
	runner     *runner
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	logger     *slog.Logger
	running    bool
	runningMu  sync.RWMutex
}

// NewScheduler 创建调度器，lanes 为执行协程数，tick 为时间轮每格时长
func NewScheduler(lanes int, tick time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		wheel:      NewTimeWheel(tick),
		runner:     newRunner(lanes),
		ctx:        ctx,
		cancel:     cancel,
		logger:     slog.Default().With("component", "Scheduler"),
	}
}

// Start 启动调度器
func (s *Scheduler) Start() error {
	s.runningMu.Lock()
	if s.running {
		s.runningMu.Unlock()
		return errors.New("调度器已经在运行中")
	}
	s.running = true
	s.runningMu.Unlock()

	s.runner.start()

	s.wg.Add(1)
	go s.tickLoop()

	s.logger.Info("Scheduler started")
	return nil
}

func (s *Scheduler) tickLoop() {
	defer s.wg.Done()

	ticker := s.wheel.GetTicker()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.onTick()
		}
	}
}

func (s *Scheduler) onTick() {
	tasks := s.wheel.Tick()
	if len(tasks) == 0 {
		return
	}

	s.logger.Debug("Deadlines due", "slot", s.wheel.GetCurrentSlot(), "count", len(tasks))
	s.runner.dispatch(tasks)
}

// Stop 停止调度器，未到期的任务被丢弃
func (s *Scheduler) Stop() {
	s.runningMu.Lock()
	if !s.running {
		s.runningMu.Unlock()
		return
	}
	s.running = false
	s.runningMu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.wheel.Stop()
	s.runner.stop()

	s.logger.Info("Scheduler stopped")
}

// AddTask 添加任务；同 ID 的旧任务被替换
func (s *Scheduler) AddTask(task *Task) error {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()

	if !s.running {
		return ErrSchedulerNotRunning
	}
	if task == nil || task.ID == "" {
		return errors.New("任务ID不能为空")
	}

	s.logger.Debug("Deadline scheduled",
		"taskId", task.ID,
		"roomId", task.Target,
		"version", task.Version,
		"delay", task.Delay)

	s.wheel.AddTask(task)
	return nil
}

// RemoveTask 删除尚未到期的任务
func (s *Scheduler) RemoveTask(taskID string) error {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()

	if !s.running {
		return ErrSchedulerNotRunning
	}
	if !s.wheel.RemoveTask(taskID) {
		return ErrTaskNotFound
	}

	s.logger.Debug("Deadline cancelled", "taskId", taskID)
	return nil
}

// IsRunning 检查调度器是否运行中
func (s *Scheduler) IsRunning() bool {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()

	return s.running
}

// GetStats 获取调度器统计信息
func (s *Scheduler) GetStats() map[string]any {
	return map[string]any{
		"running":        s.IsRunning(),
		"currentSlot":    s.wheel.GetCurrentSlot(),
		"totalTaskCount": s.wheel.GetTotalTaskCount(),
		"lanes":          len(s.runner.lanes),
	}
}
