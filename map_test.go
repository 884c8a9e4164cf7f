package issueenvelope

import (
	"errors"
	"testing"
)

func TestDomainConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		typ  IssueType
		msg  string
	}{
		{
			name: "not found by field",
			err:  NotFoundByField("Order", "id", "42"),
			typ:  ResourceNotFound,
			msg:  "No Order can be found by given id: '42'.",
		},
		{
			name: "not found by numeric field",
			err:  NotFoundByField("Order", "id", 42),
			typ:  ResourceNotFound,
			msg:  "No Order can be found by given id: 42.",
		},
		{
			name: "not found by fields",
			err:  NotFoundByFields("Order", map[string]any{"number": "A-1", "customer": 7}),
			typ:  ResourceNotFound,
			msg:  "No Order can be found by given customer: 7, number: 'A-1'.",
		},
		{
			name: "already exists",
			err:  AlreadyExistsByField("Customer", "email", "a@b.c"),
			typ:  ResourceAlreadyExists,
			msg:  "Customer already exists by email: 'a@b.c'.",
		},
		{
			name: "already exists by fields",
			err:  AlreadyExistsByFields("Customer", map[string]any{"tenant": "t1", "email": "a@b.c"}),
			typ:  ResourceAlreadyExists,
			msg:  "Customer already exists by email: 'a@b.c', tenant: 't1'.",
		},
		{
			name: "not viable",
			err:  NotViableByField("Order", "id", "42"),
			typ:  ResourceNotViable,
			msg:  "Order by given id: '42' is not viable.",
		},
		{
			name: "not viable by fields",
			err:  NotViableByFields("Order", map[string]any{"id": 1}),
			typ:  ResourceNotViable,
			msg:  "Order by given id: 1 is not viable.",
		},
		{
			name: "precondition",
			err:  Precondition("order is open"),
			typ:  PreconditionViolated,
			msg:  "'order is open' precondition is violated.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.err.ReportingIssueType().Equal(tt.typ) {
				t.Errorf("expected type %s, got %s", tt.typ, tt.err.ReportingIssueType())
			}
			if tt.err.Message() != tt.msg {
				t.Errorf("expected message %q, got %q", tt.msg, tt.err.Message())
			}
		})
	}
}

func TestCustom(t *testing.T) {
	quota := NewIssueType("QUOTA_EXCEEDED", 429)
	e, err := Custom([]IssueType{quota}, "daily quota used")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.StatusCode() != 429 || !e.IsCustom() {
		t.Errorf("expected custom error with status 429, got %d", e.StatusCode())
	}

	if _, err := Custom(nil, "x"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}
