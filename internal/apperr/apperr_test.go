package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(NotFound("event not found")); got != KindNotFound {
		t.Fatalf("KindOf = %v, want not found", got)
	}
	if got := KindOf(errors.New("boom")); got != KindUnknown {
		t.Fatalf("KindOf plain error = %v, want unknown", got)
	}
	if got := KindOf(nil); got != KindUnknown {
		t.Fatalf("KindOf nil = %v, want unknown", got)
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("registering: %w", Conflict("start number %d is already taken", 7))
	if KindOf(err) != KindConflict {
		t.Fatalf("wrapped kind = %v, want conflict", KindOf(err))
	}
	if !errors.Is(err, Conflict("")) {
		t.Fatal("errors.Is does not match by kind")
	}
}
