package health

import (
	"context"
	"time"
)

// Check names, in evaluation order.
const (
	CheckConfig   = "config"
	CheckDatabase = "database"
	CheckSchema   = "schema"
)

// Probe is the storage surface readiness depends on.
type Probe interface {
	Ping(ctx context.Context) error
	SchemaApplied(ctx context.Context) (bool, error)
}

// CheckResult is the outcome of one readiness check.
type CheckResult struct {
	Name    string
	OK      bool
	Latency time.Duration
	Message string // operator-facing, never includes error text
}

// Report is the combined readiness decision.
type Report struct {
	Ready  bool
	Checks []CheckResult
	// Failed names the first failing check, or is empty when ready.
	Failed string
	// Err is the underlying error of the failed check, for logging only.
	Err error
}

// Evaluator combines configuration, database reachability and schema
// presence into one ready/not-ready decision.
type Evaluator struct {
	probe            Probe
	secretConfigured bool
}

// NewEvaluator creates an Evaluator. A nil probe counts as unreachable.
func NewEvaluator(probe Probe, secretConfigured bool) *Evaluator {
	return &Evaluator{probe: probe, secretConfigured: secretConfigured}
}

// Evaluate runs every check. Any failure makes the report not ready.
// Connectivity errors are reported as failures, never returned.
func (e *Evaluator) Evaluate(ctx context.Context) Report {
	var r Report

	fail := func(c CheckResult, err error) {
		r.Checks = append(r.Checks, c)
		if r.Failed == "" {
			r.Failed = c.Name
			r.Err = err
		}
	}

	if e.secretConfigured {
		r.Checks = append(r.Checks, CheckResult{Name: CheckConfig, OK: true})
	} else {
		fail(CheckResult{Name: CheckConfig, Message: "webhook secret not configured"}, nil)
	}

	if e.probe == nil {
		fail(CheckResult{Name: CheckDatabase, Message: "not configured"}, nil)
		fail(CheckResult{Name: CheckSchema, Message: "database unavailable"}, nil)
		r.Ready = r.Failed == ""
		return r
	}

	start := time.Now()
	if err := e.probe.Ping(ctx); err != nil {
		fail(CheckResult{Name: CheckDatabase, Message: "connection failed"}, err)
		fail(CheckResult{Name: CheckSchema, Message: "database unavailable"}, nil)
		r.Ready = false
		return r
	}
	r.Checks = append(r.Checks, CheckResult{Name: CheckDatabase, OK: true, Latency: time.Since(start)})

	applied, err := e.probe.SchemaApplied(ctx)
	switch {
	case err != nil:
		fail(CheckResult{Name: CheckSchema, Message: "schema check failed"}, err)
	case !applied:
		fail(CheckResult{Name: CheckSchema, Message: "schema not applied"}, nil)
	default:
		r.Checks = append(r.Checks, CheckResult{Name: CheckSchema, OK: true})
	}

	r.Ready = r.Failed == ""
	return r
}
