package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAssignsIDAndTimestamp(t *testing.T) {
	s := openTestStore(t)

	rec := &Record{Kind: KindLearning, Topic: "Photosynthesis", Language: "English", Level: "beginner", Summary: "sum"}
	id, err := s.Add(rec)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if id == "" || rec.ID != id {
		t.Errorf("Add did not assign an ID: id=%q rec.ID=%q", id, rec.ID)
	}
	if rec.CreatedAt == "" {
		t.Error("Add did not assign a timestamp")
	}
	if _, err := time.Parse(time.RFC3339Nano, rec.CreatedAt); err != nil {
		t.Errorf("timestamp %q is not RFC3339: %v", rec.CreatedAt, err)
	}
}

func TestGetRoundTrip(t *testing.T) {
	s := openTestStore(t)

	in := &Record{
		Kind:       KindAssessment,
		Topic:      "Thermodynamics",
		Language:   "Spanish",
		Level:      "advanced",
		Summary:    "exam of 10 questions",
		Evaluation: "Correct",
	}
	id, err := s.Add(in)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Topic != in.Topic || got.Kind != in.Kind || got.Language != in.Language ||
		got.Level != in.Level || got.Summary != in.Summary || got.Evaluation != in.Evaluation {
		t.Errorf("Get = %+v, want %+v", got, in)
	}
}

func TestGetNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Get("nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, topic := range []string{"oldest", "middle", "newest"} {
		_, err := s.Add(&Record{
			Kind:      KindLearning,
			Topic:     topic,
			Language:  "English",
			Level:     "beginner",
			Summary:   "s",
			CreatedAt: base.Add(time.Duration(i) * time.Hour).Format(time.RFC3339Nano),
		})
		if err != nil {
			t.Fatalf("Add(%s): %v", topic, err)
		}
	}

	all, err := s.List(0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].Topic != "newest" || all[2].Topic != "oldest" {
		t.Errorf("List(0) order wrong: %+v", all)
	}

	limited, err := s.List(2)
	if err != nil {
		t.Fatalf("List(2): %v", err)
	}
	if len(limited) != 2 || limited[0].Topic != "newest" || limited[1].Topic != "middle" {
		t.Errorf("List(2) = %+v", limited)
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	id, err := s.Add(&Record{Kind: KindVideo, Topic: "t", Language: "English", Level: "beginner", Summary: "s"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := s.Delete(id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete: got %v, want ErrNotFound", err)
	}
	if err := s.Delete(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("double Delete: got %v, want ErrNotFound", err)
	}
}

func TestOpenReusesExistingDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id, err := s1.Add(&Record{Kind: KindLearning, Topic: "persist", Language: "English", Level: "beginner", Summary: "s"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if _, err := s2.Get(id); err != nil {
		t.Errorf("Get after reopen: %v", err)
	}
}
