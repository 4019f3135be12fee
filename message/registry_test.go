package message

import (
	"testing"

	"goldmod/engine/enginetest"
)

func TestRegistryMemoizesLookups(t *testing.T) {
	f := enginetest.New()
	f.DefineMessage("TextMsg", 75)
	r := NewRegistry(f)

	if got := r.ID("TextMsg"); got != 75 {
		t.Fatalf("ID = %d, want 75", got)
	}
	// Later host answers must not matter once cached.
	f.DefineMessage("TextMsg", 99)
	if got := r.ID("TextMsg"); got != 75 {
		t.Errorf("memoized ID = %d, want 75", got)
	}
	if name, ok := r.Name(75); !ok || name != "TextMsg" {
		t.Errorf("Name(75) = %q/%v, want TextMsg/true", name, ok)
	}
}

func TestRegistryUnknownName(t *testing.T) {
	f := enginetest.New()
	r := NewRegistry(f)

	if got := r.ID("Nope"); got != 0 {
		t.Errorf("ID of unknown = %d, want 0", got)
	}
	if _, ok := r.Name(123); ok {
		t.Error("Name of unknown id succeeded")
	}
}

func TestRegistryRegister(t *testing.T) {
	f := enginetest.New()
	r := NewRegistry(f)

	id := r.Register("Countdown", 2)
	if id == 0 {
		t.Fatal("registration returned the invalid sentinel")
	}
	if again := r.Register("Countdown", 2); again != id {
		t.Errorf("second registration = %d, want %d", again, id)
	}
	if got := r.ID("Countdown"); got != id {
		t.Errorf("ID after register = %d, want %d", got, id)
	}
}

func TestRegistryRegisterRefused(t *testing.T) {
	f := enginetest.New()
	f.RefuseMessage("Blocked")
	r := NewRegistry(f)

	if got := r.Register("Blocked", -1); got != 0 {
		t.Errorf("refused registration = %d, want 0", got)
	}
	if got := r.Resolve("Blocked"); got != 0 {
		t.Errorf("resolve of refused = %d, want 0", got)
	}
}

func TestRegistryResolveRegistersVariableLength(t *testing.T) {
	f := enginetest.New()
	r := NewRegistry(f)

	id := r.Resolve("Fresh")
	if id == 0 {
		t.Fatal("resolve did not register")
	}
	if hostID, ok := f.MessageID("Fresh"); !ok || hostID != id {
		t.Errorf("host table holds %d/%v, want %d/true", hostID, ok, id)
	}
}
