package sqlite

import (
	"context"
	"strings"
	"testing"
)

func TestFragmentsInsertionOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := s.Fragments()

	texts := []string{"first note", "second note", "third note"}
	for _, txt := range texts {
		if err := f.Store(ctx, "Player", txt); err != nil {
			t.Fatalf("store: %v", err)
		}
	}

	frags, err := f.Retrieve(ctx, "Player")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}

	if len(frags) != len(texts) {
		t.Fatalf("got %d fragments, want %d", len(frags), len(texts))
	}
	for i, frag := range frags {
		if frag.Text != texts[i] {
			t.Errorf("fragment %d = %q, want %q", i, frag.Text, texts[i])
		}
	}
}

func TestFragmentsOwnerIsolation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := s.Fragments()

	if err := f.Store(ctx, "Player", "mine"); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := f.Store(ctx, "Other", "theirs"); err != nil {
		t.Fatalf("store: %v", err)
	}

	frags, err := f.Retrieve(ctx, "Player")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(frags) != 1 || frags[0].Text != "mine" {
		t.Fatalf("got %+v, want only the Player fragment", frags)
	}
}

func TestFragmentsRetrieveEmpty(t *testing.T) {
	s := newTestStore(t)

	frags, err := s.Fragments().Retrieve(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(frags) != 0 {
		t.Fatalf("got %d fragments, want none", len(frags))
	}
}

func TestFragmentsRemoveBySubstring(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := s.Fragments()

	for _, txt := range []string{
		"my favorite color is blue",
		"favorite food is ramen",
		"lives in the city",
	} {
		if err := f.Store(ctx, "Player", txt); err != nil {
			t.Fatalf("store: %v", err)
		}
	}

	count, err := f.Remove(ctx, "Player", "favorite")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if count != 2 {
		t.Errorf("removed %d, want 2", count)
	}

	frags, err := f.Retrieve(ctx, "Player")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	for _, frag := range frags {
		if strings.Contains(frag.Text, "favorite") {
			t.Errorf("fragment %q still contains removed keyword", frag.Text)
		}
	}
	if len(frags) != 1 {
		t.Errorf("got %d fragments, want 1 survivor", len(frags))
	}
}

func TestFragmentsRemoveIsCaseSensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := s.Fragments()

	if err := f.Store(ctx, "Player", "Likes Coffee"); err != nil {
		t.Fatalf("store: %v", err)
	}

	count, err := f.Remove(ctx, "Player", "coffee")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if count != 0 {
		t.Errorf("removed %d with wrong-case keyword, want 0", count)
	}

	count, err = f.Remove(ctx, "Player", "Coffee")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if count != 1 {
		t.Errorf("removed %d with exact-case keyword, want 1", count)
	}
}

func TestFragmentsRemoveNoMatch(t *testing.T) {
	s := newTestStore(t)

	count, err := s.Fragments().Remove(context.Background(), "Player", "nothing here")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if count != 0 {
		t.Errorf("removed %d, want 0", count)
	}
}

func TestFragmentsUpdateReplacesFullText(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := s.Fragments()

	for _, txt := range []string{
		"my favorite color is blue",
		"blue is a calm color",
		"ramen is great",
	} {
		if err := f.Store(ctx, "Player", txt); err != nil {
			t.Fatalf("store: %v", err)
		}
	}

	count, err := f.Update(ctx, "Player", "blue", "my favorite color is green")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if count != 2 {
		t.Errorf("updated %d, want 2", count)
	}

	frags, err := f.Retrieve(ctx, "Player")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	want := []string{
		"my favorite color is green",
		"my favorite color is green",
		"ramen is great",
	}
	for i, frag := range frags {
		if frag.Text != want[i] {
			t.Errorf("fragment %d = %q, want %q", i, frag.Text, want[i])
		}
	}
}

func TestFragmentsUpdateNoMatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := s.Fragments()

	if err := f.Store(ctx, "Player", "untouched"); err != nil {
		t.Fatalf("store: %v", err)
	}

	count, err := f.Update(ctx, "Player", "missing", "replacement")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if count != 0 {
		t.Errorf("updated %d, want 0", count)
	}

	frags, err := f.Retrieve(ctx, "Player")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(frags) != 1 || frags[0].Text != "untouched" {
		t.Fatalf("got %+v, want the original fragment untouched", frags)
	}
}
