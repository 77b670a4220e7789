// Package checks builds the fixed security check catalogue and selects the
// checks a scan runs.
package checks

import (
	"context"
	"fmt"

	"github.com/ahrav/secaudit/internal/domain/checks"
	"github.com/ahrav/secaudit/internal/domain/scanning"
)

// entry pairs a definition with the advice attached to its failures.
type entry struct {
	def    checks.Definition
	advice checks.Advice
}

// Registry is the catalogue, built once and shared by every scan. It is
// read-only after construction.
type Registry struct {
	defs       []checks.Definition
	byCategory map[checks.Category][]checks.Definition
}

// NewRegistry builds the default catalogue.
func NewRegistry() *Registry {
	r, err := newRegistry(catalogue())
	if err != nil {
		// The catalogue is static; a duplicate is a programming error.
		panic(err)
	}
	return r
}

func newRegistry(entries []entry) (*Registry, error) {
	r := &Registry{byCategory: make(map[checks.Category][]checks.Definition)}

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.def.Name]; dup {
			return nil, fmt.Errorf("duplicate check %q", e.def.Name)
		}
		if e.def.Run == nil {
			return nil, fmt.Errorf("check %q has no implementation", e.def.Name)
		}
		seen[e.def.Name] = struct{}{}

		def := e.def
		def.Run = finalize(e.def, e.advice)
		r.byCategory[def.Category] = append(r.byCategory[def.Category], def)
	}

	for _, c := range checks.Categories {
		r.defs = append(r.defs, r.byCategory[c]...)
	}
	return r, nil
}

// All returns every definition in registry order.
func (r *Registry) All() []checks.Definition {
	out := make([]checks.Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// ByCategory returns the definitions of one category.
func (r *Registry) ByCategory(c checks.Category) []checks.Definition {
	defs := r.byCategory[c]
	out := make([]checks.Definition, len(defs))
	copy(out, defs)
	return out
}

// Select returns the checks a scan with settings runs: every check in an
// enabled category plus the external tool checks, in registry order.
func (r *Registry) Select(settings scanning.Settings) []checks.Definition {
	var out []checks.Definition
	for _, c := range checks.Categories {
		if settings.Enabled(c) {
			out = append(out, r.byCategory[c]...)
		}
	}
	return out
}

// finalize wraps a check so every failing result carries the definition's
// defaults and a recommendation.
func finalize(def checks.Definition, advice checks.Advice) checks.Func {
	return func(ctx context.Context, env checks.Environment) (checks.Result, error) {
		res, err := def.Run(ctx, env)
		if err != nil || res.Passed {
			return res, err
		}

		if res.ScanFailure {
			if res.Recommendation == nil {
				res.Recommendation = &checks.Advice{
					Title:          "Restore inputs for " + def.Name,
					Description:    "The check could not read the data it evaluates, so the control is unverified.",
					Implementation: "Make the source tree, configuration store or tool available to the scanner and re-run the scan.",
					Effort:         effortFor(checks.SeverityMedium),
					Cost:           costFor(checks.SeverityMedium),
				}
			}
			return res, nil
		}

		if res.Severity == "" {
			res.Severity = def.Severity
		}
		if res.Description == "" {
			res.Description = def.Description
		}
		if res.CWE == "" {
			res.CWE = def.CWE
		}
		if res.CVSS == "" {
			res.CVSS = def.CVSS
		}
		if res.Impact == "" {
			res.Impact = impactFor(res.Severity)
		}
		if res.Likelihood == "" {
			res.Likelihood = likelihoodFor(res.Severity)
		}
		if res.Remediation == "" {
			res.Remediation = advice.Implementation
		}
		if res.Recommendation == nil {
			a := advice
			if a.Effort == "" {
				a.Effort = effortFor(res.Severity)
			}
			if a.Cost == "" {
				a.Cost = costFor(res.Severity)
			}
			res.Recommendation = &a
		}
		return res, nil
	}
}

func effortFor(s checks.Severity) string {
	switch s {
	case checks.SeverityCritical:
		return "high"
	case checks.SeverityHigh:
		return "medium"
	default:
		return "low"
	}
}

func costFor(s checks.Severity) string {
	switch s {
	case checks.SeverityCritical, checks.SeverityHigh:
		return "medium"
	case checks.SeverityMedium:
		return "low"
	default:
		return "minimal"
	}
}

func impactFor(s checks.Severity) string {
	switch s {
	case checks.SeverityCritical:
		return "Full compromise of the application or its data is possible."
	case checks.SeverityHigh:
		return "An attacker could read or modify sensitive data."
	case checks.SeverityMedium:
		return "Weakens defence in depth and can be chained with other flaws."
	default:
		return "Limited direct impact."
	}
}

func likelihoodFor(s checks.Severity) string {
	if s.AtLeastHigh() {
		return "high"
	}
	if s == checks.SeverityMedium {
		return "medium"
	}
	return "low"
}
