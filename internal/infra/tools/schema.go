package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// counts is the normalized severity distribution reported by a tool.
type counts struct {
	critical int
	high     int
	moderate int
}

func (c *counts) add(severity string) {
	switch strings.ToLower(severity) {
	case "critical":
		c.critical++
	case "high":
		c.high++
	case "moderate", "medium":
		c.moderate++
	}
}

// parseFunc decodes a tool's stdout. It returns errSchema when the output is
// not the tool's report shape and a toolError when the tool reported that it
// could not run.
type parseFunc func(stdout []byte) (counts, error)

var errSchema = errors.New("output does not match the expected report schema")

type toolError struct{ msg string }

func (e *toolError) Error() string { return e.msg }

// parseNpmAudit reads `npm audit --json` (report versions 1 and 2).
func parseNpmAudit(stdout []byte) (counts, error) {
	var doc struct {
		Error *struct {
			Code    string `json:"code"`
			Summary string `json:"summary"`
		} `json:"error"`
		Metadata *struct {
			Vulnerabilities *struct {
				Critical int `json:"critical"`
				High     int `json:"high"`
				Moderate int `json:"moderate"`
			} `json:"vulnerabilities"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(stdout, &doc); err != nil {
		return counts{}, fmt.Errorf("%w: %v", errSchema, err)
	}
	if doc.Error != nil {
		return counts{}, &toolError{msg: strings.TrimSpace(doc.Error.Code + " " + doc.Error.Summary)}
	}
	if doc.Metadata == nil || doc.Metadata.Vulnerabilities == nil {
		return counts{}, errSchema
	}

	v := doc.Metadata.Vulnerabilities
	return counts{critical: v.Critical, high: v.High, moderate: v.Moderate}, nil
}

type snykProject struct {
	OK              *bool  `json:"ok"`
	Error           string `json:"error"`
	Vulnerabilities []struct {
		Severity string `json:"severity"`
	} `json:"vulnerabilities"`
}

// parseSnyk reads `snyk test --json`, which prints one object per project or
// an array when several manifests are tested.
func parseSnyk(stdout []byte) (counts, error) {
	var projects []snykProject

	trimmed := bytes.TrimSpace(stdout)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &projects); err != nil {
			return counts{}, fmt.Errorf("%w: %v", errSchema, err)
		}
	} else {
		var p snykProject
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return counts{}, fmt.Errorf("%w: %v", errSchema, err)
		}
		projects = []snykProject{p}
	}

	var c counts
	for _, p := range projects {
		if p.Error != "" {
			return counts{}, &toolError{msg: p.Error}
		}
		if p.OK == nil && p.Vulnerabilities == nil {
			return counts{}, errSchema
		}
		for _, v := range p.Vulnerabilities {
			c.add(v.Severity)
		}
	}
	return c, nil
}

type retireFile struct {
	File    string `json:"file"`
	Results []struct {
		Component       string `json:"component"`
		Vulnerabilities []struct {
			Severity string `json:"severity"`
		} `json:"vulnerabilities"`
	} `json:"results"`
}

// parseRetire reads `retire --outputformat json`: an object with a data array
// in current versions, a bare array in older ones.
func parseRetire(stdout []byte) (counts, error) {
	var files []retireFile

	trimmed := bytes.TrimSpace(stdout)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &files); err != nil {
			return counts{}, fmt.Errorf("%w: %v", errSchema, err)
		}
	} else {
		var doc struct {
			Data   *[]retireFile `json:"data"`
			Errors []string      `json:"errors"`
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return counts{}, fmt.Errorf("%w: %v", errSchema, err)
		}
		if len(doc.Errors) > 0 {
			return counts{}, &toolError{msg: strings.Join(doc.Errors, "; ")}
		}
		if doc.Data == nil {
			return counts{}, errSchema
		}
		files = *doc.Data
	}

	var c counts
	for _, f := range files {
		for _, r := range f.Results {
			for _, v := range r.Vulnerabilities {
				c.add(v.Severity)
			}
		}
	}
	return c, nil
}
