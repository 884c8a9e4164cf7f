package issueenvelope

import (
	"errors"
	"fmt"
	"testing"
)

func TestReportingIssueTypeIsFirst(t *testing.T) {
	sequences := [][]IssueType{
		{ResourceNotFound},
		{PreconditionViolated, ResourceNotViable},
		{NewIssueType("QUOTA_EXCEEDED", 429), Unknown, ResourceAlreadyExists},
	}

	for _, types := range sequences {
		e, err := New(types, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !e.ReportingIssueType().Equal(types[0]) {
			t.Errorf("expected reporting type %s, got %s", types[0], e.ReportingIssueType())
		}
		if e.StatusCode() != types[0].StatusCode() {
			t.Errorf("expected status %d, got %d", types[0].StatusCode(), e.StatusCode())
		}
	}
}

func TestNewRejectsEmptyTypes(t *testing.T) {
	for _, types := range [][]IssueType{nil, {}} {
		if _, err := New(types, "msg"); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for %v, got %v", types, err)
		}
	}
}

func TestNewRejectsBlankName(t *testing.T) {
	_, err := New([]IssueType{ResourceNotFound, NewIssueType("  ", 400)}, "")
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestOfPanicsOnBlankName(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	Of(IssueType{}, "msg")
}

func TestNewCopiesTypes(t *testing.T) {
	types := []IssueType{ResourceNotFound}
	e, _ := New(types, "")
	types[0] = Unknown

	if !e.ReportingIssueType().Equal(ResourceNotFound) {
		t.Error("expected error to be unaffected by caller mutation")
	}

	got := e.IssueTypes()
	got[0] = Unknown
	if !e.ReportingIssueType().Equal(ResourceNotFound) {
		t.Error("expected IssueTypes to return a copy")
	}
}

func TestErrorString(t *testing.T) {
	cause := errors.New("db down")
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"type only", Of(Unknown, ""), "UNKNOWN"},
		{"with message", Of(ResourceNotFound, "gone"), "RESOURCE_NOT_FOUND: gone"},
		{"with cause", WrapOf(Unknown, "failed", cause), "UNKNOWN: failed (db down)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}

	multi, _ := New([]IssueType{PreconditionViolated, ResourceNotViable}, "")
	if got := multi.Error(); got != "PRECONDITION_VIOLATED,RESOURCE_NOT_VIABLE" {
		t.Errorf("unexpected multi-type string %q", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("db down")
	e := WrapOf(Unknown, "failed", cause)

	if !errors.Is(e, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if e.Cause() != cause {
		t.Error("expected Cause to return the wrapped error")
	}
}

func TestMessage(t *testing.T) {
	if Of(Unknown, "").HasMessage() {
		t.Error("expected no message")
	}
	e := Of(ResourceNotFound, "gone")
	if !e.HasMessage() || e.Message() != "gone" {
		t.Errorf("expected message gone, got %q", e.Message())
	}
}

func TestIsAndHas(t *testing.T) {
	e, _ := New([]IssueType{PreconditionViolated, ResourceNotViable}, "")
	wrapped := fmt.Errorf("placing order: %w", e)

	if !Is(wrapped, PreconditionViolated) {
		t.Error("expected Is to match the reporting issue type")
	}
	if Is(wrapped, ResourceNotViable) {
		t.Error("expected Is not to match a secondary issue type")
	}
	if !Has(wrapped, ResourceNotViable) {
		t.Error("expected Has to match a secondary issue type")
	}
	if Has(errors.New("plain"), Unknown) {
		t.Error("expected plain errors to match nothing")
	}
}

func TestErrorsIsComparesClassification(t *testing.T) {
	a := Of(ResourceNotFound, "first")
	b := Of(ResourceNotFound, "second")

	if !errors.Is(fmt.Errorf("wrap: %w", a), b) {
		t.Error("expected errors with the same issue types to match")
	}
	if errors.Is(a, Of(ResourceNotViable, "")) {
		t.Error("expected errors with different issue types not to match")
	}
}

func TestIsCustom(t *testing.T) {
	if Of(ResourceNotFound, "").IsCustom() {
		t.Error("expected built-in error not to be custom")
	}
	e, _ := New([]IssueType{ResourceNotFound, NewIssueType("QUOTA_EXCEEDED", 429)}, "")
	if !e.IsCustom() {
		t.Error("expected error with a custom issue type to be custom")
	}
}
