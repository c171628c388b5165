package session

import (
	"errors"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/transfer_console/models"
	"bitbucket.org/mmdatafocus/transfer_console/utils"
)

func testWorkspace() models.AllocationWorkspace {
	return models.NewWorkspace(1, time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC), models.PaymentModeCash, "")
}

func TestCreateActivatesFirstDestination(t *testing.T) {
	store := NewStore()
	w := testWorkspace()

	sess := store.Create(w)
	if sess.ID == "" {
		t.Fatalf("session has no id")
	}
	if sess.ActiveDestinationId != w.Destinations[0].ID {
		t.Errorf("active destination = %q, want the first destination", sess.ActiveDestinationId)
	}

	got, err := store.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Workspace.ID != w.ID {
		t.Errorf("stored workspace id = %q, want %q", got.Workspace.ID, w.ID)
	}
}

func TestGetUnknownSession(t *testing.T) {
	store := NewStore()
	if _, err := store.Get("nope"); !errors.Is(err, utils.ErrorSessionNotFound) {
		t.Errorf("err = %v, want ErrorSessionNotFound", err)
	}
}

func TestUpdateAppliesMutation(t *testing.T) {
	store := NewStore()
	sess := store.Create(testWorkspace())

	updated, err := store.Update(sess.ID, func(s *Session) error {
		w, addedId := s.Workspace.AddDestination(nil)
		s.Workspace = w
		s.ActiveDestinationId = addedId
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(updated.Workspace.Destinations) != 2 {
		t.Fatalf("expected 2 destinations, got %d", len(updated.Workspace.Destinations))
	}
	if updated.ActiveDestinationId != updated.Workspace.Destinations[1].ID {
		t.Errorf("active destination not moved to the added one")
	}

	// Persisted, not just returned.
	got, _ := store.Get(sess.ID)
	if len(got.Workspace.Destinations) != 2 {
		t.Errorf("update not persisted")
	}
}

func TestUpdateErrorDiscardsWorkingCopy(t *testing.T) {
	store := NewStore()
	sess := store.Create(testWorkspace())

	_, err := store.Update(sess.ID, func(s *Session) error {
		w, _ := s.Workspace.AddDestination(nil)
		s.Workspace = w
		return errors.New("refused")
	})
	if err == nil {
		t.Fatalf("expected the callback error")
	}

	got, _ := store.Get(sess.ID)
	if len(got.Workspace.Destinations) != 1 {
		t.Errorf("failed update leaked into the stored session")
	}
}

func TestDelete(t *testing.T) {
	store := NewStore()
	sess := store.Create(testWorkspace())

	store.Delete(sess.ID)
	if _, err := store.Get(sess.ID); !errors.Is(err, utils.ErrorSessionNotFound) {
		t.Errorf("session still readable after delete: %v", err)
	}
}
