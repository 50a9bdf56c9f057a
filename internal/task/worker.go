package task

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// runner 执行到期的截止任务
// 同一房间的任务固定进入同一条 lane，按到期顺序串行执行
type runner struct {
	lanes  []chan *Task
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger
}

func newRunner(lanes int) *runner {
	if lanes <= 0 {
		lanes = 4
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &runner{
		lanes:  make([]chan *Task, lanes),
		ctx:    ctx,
		cancel: cancel,
		logger: slog.Default().With("component", "DeadlineRunner"),
	}
	for i := range r.lanes {
		r.lanes[i] = make(chan *Task, 16)
	}
	return r
}

func (r *runner) start() {
	for i, lane := range r.lanes {
		r.wg.Add(1)
		go r.loop(i, lane)
	}
	r.logger.Info("Deadline runner started", "lanes", len(r.lanes))
}

func (r *runner) loop(lane int, in <-chan *Task) {
	defer r.wg.Done()
	for {
		select {
		case <-r.ctx.Done():
			return
		case t := <-in:
			r.run(lane, t)
		}
	}
}

func (r *runner) run(lane int, t *Task) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Deadline task panicked", "lane", lane, "taskId", t.ID, "roomId", t.Target, "panic", p)
		}
	}()

	if err := t.Execute(r.ctx); err != nil {
		r.logger.Error("Deadline task failed",
			"lane", lane,
			"taskId", t.ID,
			"roomId", t.Target,
			"version", t.Version,
			"error", err)
		return
	}
	r.logger.Debug("Deadline task done", "taskId", t.ID, "version", t.Version)
}

func (r *runner) laneOf(target string) chan *Task {
	return r.lanes[xxhash.Sum64String(target)%uint64(len(r.lanes))]
}

// dispatch lane 满时阻塞，runner 停止后丢弃剩余任务
func (r *runner) dispatch(due []*Task) {
	for _, t := range due {
		lane := r.laneOf(t.Target)
		select {
		case lane <- t:
			continue
		default:
		}
		r.logger.Warn("Deadline lane full", "taskId", t.ID, "roomId", t.Target)
		select {
		case lane <- t:
		case <-r.ctx.Done():
			r.logger.Warn("Deadline runner stopped, task dropped", "taskId", t.ID)
			return
		}
	}
}

func (r *runner) stop() {
	r.cancel()
	r.wg.Wait()
	r.logger.Info("Deadline runner stopped")
}
