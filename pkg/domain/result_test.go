package domain

import (
	"context"
	"fmt"
	"testing"
)

func TestResultMergeAndBlocking(t *testing.T) {
	var result Result
	result.Merge(Result{Violations: []Violation{{Rule: "warn", Severity: SeverityWarn}}})
	if result.HasBlocking() {
		t.Fatalf("expected no blocking violations")
	}
	result.Merge(Result{Violations: []Violation{{Rule: "block", Severity: SeverityBlock}}})
	if !result.HasBlocking() {
		t.Fatalf("expected blocking violation")
	}
	err := RuleViolationError{Result: result}
	if err.Error() == "" {
		t.Fatalf("expected error string")
	}
}

func TestResultWarnings(t *testing.T) {
	result := Result{Violations: []Violation{
		{Rule: "a", Severity: SeverityWarn},
		{Rule: "b", Severity: SeverityBlock},
		{Rule: "c", Severity: SeverityWarn},
	}}
	warnings := result.Warnings()
	if len(warnings) != 2 || warnings[0].Rule != "a" || warnings[1].Rule != "c" {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}
}

func TestRulesEngineEvaluate(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(staticRule{"warn"})
	res, err := engine.Evaluate(context.Background(), emptyView{}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 1 {
		t.Fatalf("expected violation")
	}
}

func TestRulesEngineEvaluateError(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(errorRule{})
	if _, err := engine.Evaluate(context.Background(), emptyView{}, nil); err == nil {
		t.Fatalf("expected evaluation error")
	}
}

type staticRule struct{ name string }

func (r staticRule) Name() string { return r.name }

func (r staticRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return Result{Violations: []Violation{{Rule: r.name, Severity: SeverityWarn}}}, nil
}

type errorRule struct{}

func (errorRule) Name() string { return "error" }

func (errorRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return Result{}, fmt.Errorf("boom")
}

type emptyView struct{}

func (emptyView) ListUsers() []User                    { return nil }
func (emptyView) ListPatients() []Patient              { return nil }
func (emptyView) ListIncidents() []Incident            { return nil }
func (emptyView) FindUser(string) (User, bool)         { return User{}, false }
func (emptyView) FindPatient(string) (Patient, bool)   { return Patient{}, false }
func (emptyView) FindIncident(string) (Incident, bool) { return Incident{}, false }
