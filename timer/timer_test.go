package timer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestManager_OneShot(t *testing.T) {
	m := NewManager(5 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)

	fired := make(chan struct{}, 1)
	m.AddTimer(10*time.Millisecond, 0, func() { fired <- struct{}{} })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("Timer did not fire")
	}
	if m.Len() != 0 {
		t.Errorf("One-shot timer should leave the queue, got %d", m.Len())
	}
}

func TestManager_Repeating(t *testing.T) {
	m := NewManager(5 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)

	var count int32
	id := m.AddTimer(0, 10*time.Millisecond, func() { atomic.AddInt32(&count, 1) })

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&count) < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("Expected at least 3 firings, got %d", atomic.LoadInt32(&count))
		}
		time.Sleep(5 * time.Millisecond)
	}

	m.RemoveTimer(id)
	if m.Len() != 0 {
		t.Errorf("Expected empty queue after RemoveTimer, got %d", m.Len())
	}
}

func TestManager_DueOrder(t *testing.T) {
	m := NewManager(time.Hour)
	base := time.Now()
	var order []int
	m.AddTimer(30*time.Millisecond, 0, func() { order = append(order, 3) })
	m.AddTimer(10*time.Millisecond, 0, func() { order = append(order, 1) })
	removed := m.AddTimer(20*time.Millisecond, 0, func() { order = append(order, 2) })
	m.RemoveTimer(removed)
	m.RemoveTimer(999)

	for _, task := range m.due(base.Add(time.Second)) {
		task.Callback()
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 3 {
		t.Errorf("Expected [1 3], got %v", order)
	}
	if len(m.due(base.Add(time.Second))) != 0 {
		t.Error("Fired one-shot tasks should not fire again")
	}
}
