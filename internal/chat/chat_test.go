package chat

import (
	"testing"
)

func TestStoreAppendKeepsOrder(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.Append(Message{Text: "first", Origin: OriginUser, Kind: KindPlain})
	store.Append(Message{Text: "second", Origin: OriginAssistant, Kind: KindPlain})
	store.Append(Message{Text: "third", Origin: OriginUser, Kind: KindPlain})

	got := store.All()
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Text != want {
			t.Fatalf("message %d = %q, want %q", i, got[i].Text, want)
		}
	}
}

func TestStoreAllReturnsSnapshot(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.Append(Message{Text: "original", Origin: OriginUser, Kind: KindPlain})

	snapshot := store.All()
	snapshot[0].Text = "mutated"

	if store.All()[0].Text != "original" {
		t.Fatal("mutating the snapshot must not affect the store")
	}
}

func TestVisibilityDefaultsHidden(t *testing.T) {
	t.Parallel()

	v := NewVisibility()
	if v.IsVisible("never-shown") {
		t.Fatal("unknown id should be hidden")
	}
}

func TestVisibilityShowHideIdempotent(t *testing.T) {
	t.Parallel()

	v := NewVisibility()
	v.Show("a")
	v.Show("a")
	if !v.IsVisible("a") {
		t.Fatal("id should be visible after Show")
	}
	v.Hide("a")
	v.Hide("a")
	if v.IsVisible("a") {
		t.Fatal("id should be hidden after Hide")
	}
}

func TestUUIDGeneratorProducesUniqueIDs(t *testing.T) {
	t.Parallel()

	gen := UUIDGenerator{}
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := gen.NewID()
		if id == "" {
			t.Fatal("generated ID must not be empty")
		}
		if seen[id] {
			t.Fatalf("duplicate ID after %d generations: %s", i, id)
		}
		seen[id] = true
	}
}

func TestSequentialGeneratorIsDeterministic(t *testing.T) {
	t.Parallel()

	gen := &SequentialGenerator{}
	if got := gen.NewID(); got != "msg-1" {
		t.Fatalf("first ID = %q, want msg-1", got)
	}
	if got := gen.NewID(); got != "msg-2" {
		t.Fatalf("second ID = %q, want msg-2", got)
	}
}

func TestFeedbackEligible(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message Message
		want    bool
	}{
		{"assistant with id", Message{ID: "a", Origin: OriginAssistant, Kind: KindPlain}, true},
		{"assistant without id", Message{Origin: OriginAssistant, Kind: KindPlain}, false},
		{"user message", Message{ID: "b", Origin: OriginUser, Kind: KindPlain}, false},
		{"batch message", Message{ID: "c", Origin: OriginAssistant, Kind: KindQABatch}, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.message.FeedbackEligible(); got != tt.want {
				t.Fatalf("FeedbackEligible() = %v, want %v", got, tt.want)
			}
		})
	}
}
