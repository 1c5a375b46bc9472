package session

import (
	"testing"
	"time"

	"github.com/adelyanov/vigil/internal/domain"
)

func TestStore_StartReplacesExisting(t *testing.T) {
	st := NewStore()
	st.Start(42)
	st.Update(42, func(s *domain.Session) {
		s.Step = domain.StepAwaitingReason
		s.TargetLink = "@foo_channel"
	})

	st.Start(42)

	sess, ok := st.Get(42)
	if !ok {
		t.Fatal("expected session after Start")
	}
	if sess.Step != domain.StepAwaitingLink {
		t.Errorf("Step = %q, want %q", sess.Step, domain.StepAwaitingLink)
	}
	if sess.TargetLink != "" {
		t.Errorf("TargetLink = %q, want empty after restart", sess.TargetLink)
	}
}

func TestStore_UpdateWithoutStartIsNoop(t *testing.T) {
	st := NewStore()

	st.Update(7, func(s *domain.Session) {
		s.Reason = "should never be stored"
	})

	if _, ok := st.Get(7); ok {
		t.Error("Update on absent owner created a session")
	}
}

func TestStore_EndAbsentIsNoop(t *testing.T) {
	st := NewStore()
	st.End(99)

	if st.Len() != 0 {
		t.Errorf("Len = %d, want 0", st.Len())
	}
}

func TestStore_EndRemoves(t *testing.T) {
	st := NewStore()
	st.Start(1)
	st.End(1)

	if _, ok := st.Get(1); ok {
		t.Error("session survived End")
	}

	// A revived session only comes from a fresh Start, not a stale update.
	st.Update(1, func(s *domain.Session) { s.Reason = "late" })
	if _, ok := st.Get(1); ok {
		t.Error("Update revived an ended session")
	}
}

func TestStore_GetReturnsCopy(t *testing.T) {
	st := NewStore()
	st.Start(5)

	sess, _ := st.Get(5)
	sess.Reason = "mutated copy"

	stored, _ := st.Get(5)
	if stored.Reason != "" {
		t.Error("mutating a Get result leaked into the store")
	}
}

func TestStore_SweepDropsOnlyExpired(t *testing.T) {
	st := NewStore()
	st.Start(1)
	st.Start(2)

	// Age session 1 past the TTL.
	st.mu.Lock()
	st.sessions[1].UpdatedAt = time.Now().Add(-time.Hour)
	st.mu.Unlock()

	dropped := st.Sweep(30 * time.Minute)
	if dropped != 1 {
		t.Errorf("Sweep dropped %d, want 1", dropped)
	}
	if _, ok := st.Get(1); ok {
		t.Error("expired session survived sweep")
	}
	if _, ok := st.Get(2); !ok {
		t.Error("fresh session dropped by sweep")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	st := NewStore()

	go func() {
		for i := int64(0); i < 1000; i++ {
			st.Start(i % 10)
		}
	}()

	go func() {
		for i := int64(0); i < 1000; i++ {
			st.Get(i % 10)
			st.Update(i%10, func(s *domain.Session) { s.Reason = "r" })
		}
	}()

	time.Sleep(100 * time.Millisecond)
}
