package health

import (
	"context"
	"errors"
	"testing"
)

func TestStatusWithoutChecks(t *testing.T) {
	rep := NewService().Status(context.Background())
	if !rep.Healthy() || rep.Components != nil {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestStatusDegradesOnFailingCheck(t *testing.T) {
	svc := NewService().
		Register("database", func(context.Context) error { return nil }).
		Register("compiler", func(context.Context) error { return errors.New("pdflatex not found") })

	rep := svc.Status(context.Background())
	if rep.Status != "degraded" {
		t.Fatalf("expected degraded, got %q", rep.Status)
	}
	if rep.Components["database"] != "ok" || rep.Components["compiler"] != "unavailable" {
		t.Fatalf("unexpected components: %v", rep.Components)
	}
}
