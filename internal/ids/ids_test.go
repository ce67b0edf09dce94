package ids

import "testing"

func TestNew(t *testing.T) {
	id := New()
	if !IsValid(id) {
		t.Fatalf("expected valid UUID, got %q", id)
	}
	if New() == id {
		t.Error("expected distinct IDs")
	}
}

func TestNewOrderRef(t *testing.T) {
	prev := NewOrderRef()
	for range 1000 {
		next := NewOrderRef()
		if next <= prev {
			t.Fatalf("order refs not increasing: %s then %s", prev, next)
		}
		prev = next
	}
}

func TestIsValid(t *testing.T) {
	if IsValid("not-a-uuid") {
		t.Error("expected invalid")
	}
}
