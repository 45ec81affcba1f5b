package course

import (
	"errors"
	"testing"
)

func TestPersonalizedContent_Validate(t *testing.T) {
	if err := (PersonalizedContent{}).Validate(); !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("expected ErrInvalidContent for empty modules, got %v", err)
	}

	bad := PersonalizedContent{Modules: []Module{{Title: "Intro"}, {Title: "  "}}}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("expected ErrInvalidContent for untitled module, got %v", err)
	}

	ok := PersonalizedContent{Modules: []Module{{Title: "Intro"}}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}
