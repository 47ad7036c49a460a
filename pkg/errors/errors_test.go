package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorTypes(t *testing.T) {
	err := New(ErrorTypeFormat, "bad signature")
	if !IsType(err, ErrorTypeFormat) {
		t.Error("format error not recognized")
	}
	if IsType(err, ErrorTypeIO) {
		t.Error("format error misclassified as io")
	}
	if len(err.Stack) == 0 {
		t.Error("no stack captured")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk on fire")
	err := Wrap(cause, ErrorTypeIO, "reading point record")

	if !stderrors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if !IsType(err, ErrorTypeIO) {
		t.Error("wrapped error lost its type")
	}
	if Wrap(nil, ErrorTypeIO, "x") != nil {
		t.Error("wrapping nil should return nil")
	}
}

func TestWrapThroughFmt(t *testing.T) {
	inner := Newf(ErrorTypeIndex, "index %d out of range", 7)
	outer := fmt.Errorf("while comparing: %w", inner)

	if !IsType(outer, ErrorTypeIndex) {
		t.Error("type lost through fmt.Errorf wrapping")
	}
	if AsError(outer) == nil {
		t.Error("AsError failed through fmt.Errorf wrapping")
	}
}

func TestWithDetail(t *testing.T) {
	err := New(ErrorTypeIndex, "out of range").
		WithDetail("index", 12).
		WithDetail("count", 10)

	if err.Details["index"] != 12 || err.Details["count"] != 10 {
		t.Errorf("details not stored: %+v", err.Details)
	}
}
