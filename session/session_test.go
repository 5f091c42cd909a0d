package session

import (
	"math/rand"
	"testing"
	"time"

	"github.com/wfunc/sweeper/game"
)

func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}
	if manager.sessions == nil {
		t.Fatal("NewManager should initialize the sessions map")
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sessionID := "test_session_1"
	sess := NewSession(sessionID)

	// Test Add
	manager.Add(sess)
	if manager.Len() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Len())
	}

	// Test Get
	retrievedSess, exists := manager.Get(sessionID)
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrievedSess != sess {
		t.Fatal("Get should return the same session instance")
	}

	// Test Remove
	manager.Remove(sessionID)
	if manager.Len() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Len())
	}

	_, exists = manager.Get(sessionID)
	if exists {
		t.Fatal("Get should not find the removed session")
	}

	// Removing again is a no-op
	manager.Remove(sessionID)
}

func TestManager_InRoom(t *testing.T) {
	manager := NewManager()

	sess1 := NewSession("session1")
	sess1.RoomCode = "1000"

	sess2 := NewSession("session2")
	sess2.RoomCode = "2000"

	sess3 := NewSession("session3")
	sess3.RoomCode = "1000"

	manager.Add(sess1)
	manager.Add(sess2)
	manager.Add(sess3)

	if got := manager.InRoom("1000"); len(got) != 2 {
		t.Errorf("Expected 2 sessions in room 1000, got %d", len(got))
	}
	if got := manager.InRoom("2000"); len(got) != 1 {
		t.Errorf("Expected 1 session in room 2000, got %d", len(got))
	}
	if got := manager.InRoom("3000"); len(got) != 0 {
		t.Errorf("Expected 0 sessions in room 3000, got %d", len(got))
	}
}

func TestManager_ListOrder(t *testing.T) {
	manager := NewManager()
	base := time.Now()

	for i, id := range []string{"c", "a", "b"} {
		s := NewSession(id)
		s.CreatedAt = base.Add(time.Duration(i) * time.Second)
		manager.Add(s)
	}

	list := manager.List()
	if list[0].ID != "c" || list[1].ID != "a" || list[2].ID != "b" {
		t.Errorf("Expected creation order c,a,b; got %s,%s,%s", list[0].ID, list[1].ID, list[2].ID)
	}
}

func TestSession_OwnsGame(t *testing.T) {
	sess := NewSession("owner")
	g, err := game.NewSession(sess.ID, game.Options{Rows: 3, Cols: 3, Mines: 1, Rand: rand.New(rand.NewSource(1))})
	if err != nil {
		t.Fatal(err)
	}
	sess.Game = g

	if sess.Game.OwnerID != sess.ID {
		t.Errorf("Expected game owner %s, got %s", sess.ID, sess.Game.OwnerID)
	}

	before := sess.LastActive
	time.Sleep(time.Millisecond)
	sess.Touch()
	if !sess.LastActive.After(before) {
		t.Error("Touch should advance LastActive")
	}
}

func TestManager_IdleSince(t *testing.T) {
	manager := NewManager()
	now := time.Now()

	stale := NewSession("stale")
	stale.LastActive = now.Add(-time.Hour)
	fresh := NewSession("fresh")
	fresh.LastActive = now
	manager.Add(stale)
	manager.Add(fresh)

	idle := manager.IdleSince(now.Add(-time.Minute))
	if len(idle) != 1 || idle[0].ID != "stale" {
		t.Fatalf("Expected only the stale session to be idle, got %v", idle)
	}

	fresh.Touch()
	if got := manager.IdleSince(now.Add(-time.Minute)); len(got) != 1 {
		t.Errorf("Touch must keep a session out of the idle list, got %d idle", len(got))
	}
}
