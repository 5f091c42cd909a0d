// timer/timer.go
package timer

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

type Task struct {
	ID       int64
	Execute  time.Time
	Interval time.Duration
	Callback func()
	index    int
}

type taskQueue []*Task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	return q[i].Execute.Before(q[j].Execute)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x interface{}) {
	task := x.(*Task)
	task.index = len(*q)
	*q = append(*q, task)
}

func (q *taskQueue) Pop() interface{} {
	old := *q
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	task.index = -1
	*q = old[:n-1]
	return task
}

// Manager fires one-shot and repeating callbacks from a min-heap polled at a
// fixed resolution. Callbacks run on their own goroutine and must not
// assume any particular ordering between tasks due in the same tick.
type Manager struct {
	queue      taskQueue
	tasks      map[int64]*Task
	mutex      sync.Mutex
	nextID     int64
	resolution time.Duration
}

func NewManager(resolution time.Duration) *Manager {
	if resolution <= 0 {
		resolution = 100 * time.Millisecond
	}
	m := &Manager{
		queue:      make(taskQueue, 0),
		tasks:      make(map[int64]*Task),
		nextID:     1,
		resolution: resolution,
	}
	heap.Init(&m.queue)
	return m
}

// AddTimer schedules callback after delay, then every interval if interval
// is positive. It returns an id for RemoveTimer.
func (m *Manager) AddTimer(delay, interval time.Duration, callback func()) int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	task := &Task{
		ID:       m.nextID,
		Execute:  time.Now().Add(delay),
		Interval: interval,
		Callback: callback,
	}
	m.nextID++

	heap.Push(&m.queue, task)
	m.tasks[task.ID] = task
	return task.ID
}

func (m *Manager) RemoveTimer(id int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	task, ok := m.tasks[id]
	if !ok {
		return
	}
	delete(m.tasks, id)
	if task.index >= 0 {
		heap.Remove(&m.queue, task.index)
	}
}

func (m *Manager) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.queue.Len()
}

// Start polls the heap until ctx is done.
func (m *Manager) Start(ctx context.Context) {
	ticker := time.NewTicker(m.resolution)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			for _, task := range m.due(now) {
				go task.Callback()
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) due(now time.Time) []*Task {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var fired []*Task
	for m.queue.Len() > 0 {
		task := m.queue[0]
		if task.Execute.After(now) {
			break
		}
		heap.Pop(&m.queue)
		fired = append(fired, task)

		if task.Interval > 0 {
			task.Execute = now.Add(task.Interval)
			heap.Push(&m.queue, task)
		} else {
			delete(m.tasks, task.ID)
		}
	}
	return fired
}
