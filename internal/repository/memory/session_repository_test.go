package memory

import (
	"sync"
	"testing"
	"time"

	"medicore-triage-be/pkg/triage"
)

func TestSaveGetDelete(t *testing.T) {
	repo := NewSessionRepository(time.Hour, time.Hour)
	session := triage.NewSession("sess-1", "tenant-a")

	repo.Save(session)

	got, found := repo.Get("sess-1")
	if !found {
		t.Fatal("session not found after save")
	}
	if got.ID != "sess-1" || got.TenantID != "tenant-a" {
		t.Errorf("got %+v", got)
	}

	repo.Delete("sess-1")
	if _, found := repo.Get("sess-1"); found {
		t.Error("session still present after delete")
	}
}

func TestGetUnknown(t *testing.T) {
	repo := NewSessionRepository(time.Hour, time.Hour)
	if _, found := repo.Get("nope"); found {
		t.Error("unexpected hit for unknown session")
	}
}

func TestSessionsExpire(t *testing.T) {
	repo := NewSessionRepository(10*time.Millisecond, time.Minute)
	repo.Save(triage.NewSession("sess-1", "tenant-a"))

	time.Sleep(30 * time.Millisecond)

	if _, found := repo.Get("sess-1"); found {
		t.Error("session survived past its TTL")
	}
}

func TestLockSerializesSameSession(t *testing.T) {
	repo := NewSessionRepository(time.Hour, time.Hour)

	const workers = 8
	counter := 0
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			unlock := repo.Lock("sess-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Errorf("counter = %d, want %d", counter, workers)
	}
}

func TestLockIndependentSessions(t *testing.T) {
	repo := NewSessionRepository(time.Hour, time.Hour)

	unlockA := repo.Lock("sess-a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := repo.Lock("sess-b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different session blocked")
	}
}
