package test

import (
	"strings"
	"testing"
)

func AssertEqual[T comparable](t *testing.T, expected, actual T) bool {
	t.Helper()

	if expected != actual {
		t.Errorf(""+
			"Not equal: \n"+
			"Expected: %#v\n"+
			"Actual: %#v", expected, actual)
		return false
	}

	return true
}

func AssertContains(t *testing.T, haystack, needle string) bool {
	t.Helper()

	if !strings.Contains(haystack, needle) {
		t.Errorf(""+
			"Does not contain: \n"+
			"Haystack: %q\n"+
			"Needle: %q", haystack, needle)
		return false
	}

	return true
}

func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func AssertError(t *testing.T, err error) {
	t.Helper()

	if err == nil {
		t.Fatal("Expected an error, got nil")
	}
}
