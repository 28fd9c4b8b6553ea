package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	cases := []struct {
		code      Code
		status    int
		retryable bool
	}{
		{CodeValidation, http.StatusBadRequest, false},
		{CodeAuthentication, http.StatusBadGateway, false},
		{CodeTransientFetch, http.StatusServiceUnavailable, true},
		{CodePaginationLimit, http.StatusInternalServerError, false},
		{CodeLoad, http.StatusServiceUnavailable, true},
	}
	for _, tc := range cases {
		meta := MetadataFor(tc.code)
		if meta.HTTPStatus != tc.status {
			t.Fatalf("%s: expected status %d, got %d", tc.code, tc.status, meta.HTTPStatus)
		}
		if meta.Retryable != tc.retryable {
			t.Fatalf("%s: expected retryable=%v", tc.code, tc.retryable)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor(Code("NO_SUCH_CODE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("connection reset")
	err := Wrap(CodeTransientFetch, cause, "fetching orders")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause reachable via errors.Is")
	}
	if CodeOf(err) != CodeTransientFetch {
		t.Fatalf("expected transient code, got %s", CodeOf(err))
	}
}

func TestIsCodeThroughWrapping(t *testing.T) {
	inner := New(CodePaginationLimit, "page ceiling")
	outer := fmt.Errorf("restaurant r1: %w", inner)

	if !IsCode(outer, CodePaginationLimit) {
		t.Fatal("expected code detected through fmt wrapping")
	}
	if IsCode(outer, CodeLoad) {
		t.Fatal("unexpected code match")
	}
}

func TestCodeOfPlainError(t *testing.T) {
	if got := CodeOf(stdErrors.New("plain")); got != CodeInternal {
		t.Fatalf("expected internal for untyped error, got %s", got)
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "validation failed").WithDetails(map[string]string{"field": "is required"})
	details, ok := err.Details().(map[string]string)
	if !ok || details["field"] != "is required" {
		t.Fatalf("unexpected details: %+v", err.Details())
	}
}
