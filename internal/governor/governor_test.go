package governor

import (
	"context"
	"testing"
	"time"

	"github.com/arbedge/arbedge-core/internal/kv"
)

func TestTryConsume_AdmitsExactlyMinKL(t *testing.T) {
	ctx := context.Background()
	g := New(kv.NewMemoryStore())
	scope := AIScope("user-7", 2)

	admits := 0
	for i := 0; i < 3; i++ {
		decision, err := g.TryConsume(ctx, scope)
		if err != nil {
			t.Fatalf("TryConsume failed: %v", err)
		}
		if decision == Admitted {
			admits++
		}
	}
	if admits != 2 {
		t.Errorf("expected min(3,2)=2 admits, got %d", admits)
	}
}

func TestPeek_ReflectsConsumedUsage(t *testing.T) {
	ctx := context.Background()
	g := New(kv.NewMemoryStore())
	scope := AIScope("user-7", 5)

	if _, err := g.TryConsume(ctx, scope); err != nil {
		t.Fatal(err)
	}
	if _, err := g.TryConsume(ctx, scope); err != nil {
		t.Fatal(err)
	}

	used, limit, err := g.Peek(ctx, scope)
	if err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	if used != 2 || limit != 5 {
		t.Errorf("expected used=2 limit=5, got used=%d limit=%d", used, limit)
	}
}

func TestTryConsumeAll_DeniesOnFirstExhaustedScope(t *testing.T) {
	ctx := context.Background()
	g := New(kv.NewMemoryStore())

	roomy := AIScope("user-7", 100)
	tight := CooldownScope("chat-1", time.Minute)

	decision, key, err := g.TryConsumeAll(ctx, roomy, tight)
	if err != nil {
		t.Fatal(err)
	}
	if decision != Admitted {
		t.Fatalf("expected first call to admit, got %s (denying scope %s)", decision, key)
	}

	decision, key, err = g.TryConsumeAll(ctx, roomy, tight)
	if err != nil {
		t.Fatal(err)
	}
	if decision != Limited {
		t.Fatal("expected second call within the cooldown window to be limited")
	}
	if key != tight.Key {
		t.Errorf("expected the cooldown scope to be reported as denying, got %q", key)
	}
}

func TestTryConsume_SeparateScopesAreIndependent(t *testing.T) {
	ctx := context.Background()
	g := New(kv.NewMemoryStore())

	a := AIScope("user-1", 1)
	b := AIScope("user-2", 1)

	if d, _ := g.TryConsume(ctx, a); d != Admitted {
		t.Error("expected user-1 to be admitted")
	}
	if d, _ := g.TryConsume(ctx, b); d != Admitted {
		t.Error("expected user-2's independent scope to be unaffected by user-1's usage")
	}
}
