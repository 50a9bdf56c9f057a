package task

import (
	"cmp"
	"slices"
	"strings"
	"sync"
)

// bucket 时间轮的一格，存放同一秒到期的截止任务
type bucket struct {
	mu      sync.Mutex
	pending map[string]*Task
}

func newBucket() *bucket {
	return &bucket{pending: make(map[string]*Task)}
}

// put 同 ID 的截止只保留最新一次
func (b *bucket) put(t *Task) {
	b.mu.Lock()
	b.pending[t.ID] = t
	b.mu.Unlock()
}

func (b *bucket) take(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.pending[id]; !ok {
		return false
	}
	delete(b.pending, id)
	return true
}

// drain 取出全部到期任务，先登记的先执行
func (b *bucket) drain() []*Task {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return nil
	}
	due := make([]*Task, 0, len(b.pending))
	for _, t := range b.pending {
		due = append(due, t)
	}
	clear(b.pending)
	b.mu.Unlock()

	slices.SortFunc(due, func(x, y *Task) int {
		return cmp.Or(x.CreatedAt.Compare(y.CreatedAt), strings.Compare(x.ID, y.ID))
	})
	return due
}

func (b *bucket) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
