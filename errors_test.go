package itunesdb

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestFormatError_Is(t *testing.T) {
	err := fmt.Errorf("parse itunes: %w", &FormatError{
		Kind:   TagMismatch,
		Tag:    "mhbx",
		Reason: "root chunk is not mhbd",
	})

	if !errors.Is(err, &FormatError{Kind: TagMismatch}) {
		t.Error("expected match on kind")
	}
	if !errors.Is(err, &FormatError{}) {
		t.Error("expected a zero kind to match any FormatError")
	}
	if errors.Is(err, &FormatError{Kind: DepthExceeded}) {
		t.Error("expected no match on a different kind")
	}
}

func TestWriteError_Error(t *testing.T) {
	cause := errors.New("disk full")
	err := &WriteError{Stage: StageSync, Path: "/ipod/iTunesDB", TempPath: "/ipod/.iTunesDB-1.tmp", Err: cause}

	msg := err.Error()
	for _, substr := range []string{"/ipod/iTunesDB", "sync", ".iTunesDB-1.tmp", "disk full"} {
		if !strings.Contains(msg, substr) {
			t.Errorf("error message %q should contain %q", msg, substr)
		}
	}
	if !errors.Is(err, cause) {
		t.Error("expected WriteError to unwrap to its cause")
	}
}

func TestOutOfBoundsError_Error(t *testing.T) {
	err := &OutOfBoundsError{Path: "iTunesDB", Offset: 100, Length: 50, Size: 120, What: "mhit header"}

	msg := err.Error()
	for _, substr := range []string{"iTunesDB", "read of 50 bytes", "offset 100", "exceed size 120", "mhit header"} {
		if !strings.Contains(msg, substr) {
			t.Errorf("error message %q should contain %q", msg, substr)
		}
	}
}
