package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestScenarioErrorIs(t *testing.T) {
	err := fmt.Errorf("compute: %w", NewInvalidCycleTimeError(0, 0))
	if !stderrors.Is(err, ErrInvalidCycleTime) {
		t.Fatal("expected wrapped error to match ErrInvalidCycleTime")
	}
	if stderrors.Is(err, ErrNegativeInput) {
		t.Fatal("did not expect match on ErrNegativeInput")
	}
}

func TestScenarioErrorMessageIncludesField(t *testing.T) {
	err := NewNegativeInputError("laborCostPerMonth", -10)
	if !strings.Contains(err.Error(), "laborCostPerMonth") {
		t.Fatalf("error %q should name the field", err.Error())
	}
	if !strings.HasPrefix(err.Error(), "[error] NEGATIVE_INPUT") {
		t.Fatalf("unexpected prefix: %q", err.Error())
	}
}

func TestJoin(t *testing.T) {
	if Join(nil) != nil {
		t.Fatal("Join(nil) should be nil")
	}
	err := Join([]*ScenarioError{
		NewNegativeInputError("a", -1),
		NewOutOfRangeError("utilizationRate", 120, 0, 100),
	})
	if !stderrors.Is(err, ErrOutOfRange) {
		t.Fatal("joined error should contain ErrOutOfRange")
	}
	se, ok := AsScenarioError(err)
	if !ok || se.Field != "a" {
		t.Fatalf("AsScenarioError = %+v, %v", se, ok)
	}
}

func TestSeverityMarshalText(t *testing.T) {
	b, _ := SeverityWarning.MarshalText()
	if string(b) != "warning" {
		t.Fatalf("got %q", b)
	}
}

func TestStoreFailureError(t *testing.T) {
	err := NewStoreFailureError("load")
	if !stderrors.Is(err, ErrStoreFailure) {
		t.Fatal("expected STORE_FAILURE to match its sentinel")
	}
	if err.Message != "failed to load scenario" {
		t.Fatalf("message = %q", err.Message)
	}
}
