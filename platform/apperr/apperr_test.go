package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusByKind(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:    http.StatusBadRequest,
		KindUnauthorized:  http.StatusUnauthorized,
		KindNotFound:      http.StatusNotFound,
		KindConflict:      http.StatusConflict,
		KindUnprocessable: http.StatusUnprocessableEntity,
		KindRemote:        http.StatusBadGateway,
		KindInternal:      http.StatusInternalServerError,
	}

	for kind, want := range cases {
		if got := New(kind, "x").HTTPStatus(); got != want {
			t.Fatalf("kind %s: expected status %d, got %d", kind, want, got)
		}
	}
}

func TestGetKindFollowsWrappedChain(t *testing.T) {
	base := Conflict("Policy Already Bound")
	wrapped := fmt.Errorf("bind: %w", base)

	if GetKind(wrapped) != KindConflict {
		t.Fatalf("expected conflict kind through wrapping, got %s", GetKind(wrapped))
	}
	if !Is(wrapped, KindConflict) {
		t.Fatalf("expected Is to report conflict")
	}
	if GetKind(errors.New("plain")) != KindUnknown {
		t.Fatalf("expected unknown kind for untyped error")
	}
}

func TestRemoteKeepsMessageVerbatim(t *testing.T) {
	cause := errors.New("soap fault")
	err := Remote("Quote is locked by another user", cause)

	if err.Error() != "Quote is locked by another user" {
		t.Fatalf("expected remote message verbatim, got %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected underlying cause to be reachable")
	}
	if err.WithOp("bind").Error() != "bind: Quote is locked by another user" {
		t.Fatalf("unexpected op formatting: %q", err.Error())
	}
}
