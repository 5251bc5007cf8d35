package sky

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("request: %w", Internal(io.ErrUnexpectedEOF, "tile read"))

	if !errors.Is(err, ErrInternal) {
		t.Error("expected wrapped error to match ErrInternal")
	}
	if errors.Is(err, ErrValidation) {
		t.Error("kinds must not match each other")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("cause should stay reachable")
	}
	if KindOf(err) != KindInternal {
		t.Errorf("KindOf = %s", KindOf(err))
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Error("foreign errors are internal")
	}
	if KindOf(Unavailable(nil, "gone")) != KindSkyMapUnavailable {
		t.Error("unexpected kind for Unavailable")
	}
	if !containsAll(err.Error(), "internal", "tile read", "unexpected EOF") {
		t.Errorf("message lost detail: %q", err)
	}
}
