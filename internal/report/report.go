// Package report decodes bundler stats JSON into a flat list of module records.
//
// Two shapes are accepted:
//
//	{"publicPath": "/", "modules": [{"name": "a/b", "size": 10}]}
//	{"publicPath": "/", "children": [{"modules": [{"name": "a/b", "size": 10}]}]}
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// Module is one bundled module: a slash-delimited path and its size in bytes.
type Module struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Report is the parsed size-analysis document for one build.
type Report struct {
	PublicPath string   `json:"publicPath"`
	Modules    []Module `json:"modules"`

	// Wrapped is true when the modules came from children[0].
	Wrapped bool `json:"-"`
	// Skipped counts records dropped in lenient mode.
	Skipped int `json:"-"`
}

// TotalSize returns the sum of all module sizes.
func (r *Report) TotalSize() int64 {
	var total int64
	for _, m := range r.Modules {
		total += m.Size
	}
	return total
}

// ParseOptions controls decoding.
type ParseOptions struct {
	// Strict fails on records with a missing name, a missing size or a size that is
	// not a non-negative integer. Otherwise such records are skipped or coerced.
	Strict bool

	// MaxSize limits how many bytes ParseReader consumes. 0 means no limit.
	MaxSize int64
}

// DefaultParseOptions returns lenient options without a size limit.
func DefaultParseOptions() *ParseOptions {
	return &ParseOptions{}
}

type rawReport struct {
	PublicPath json.RawMessage   `json:"publicPath"`
	Modules    json.RawMessage   `json:"modules"`
	Children   []json.RawMessage `json:"children"`
}

type rawModule struct {
	Name *string     `json:"name"`
	Size json.Number `json:"size"`
}

// ParseReader reads stats JSON from r and parses it.
func ParseReader(r io.Reader, opts *ParseOptions) (*Report, error) {
	if opts == nil {
		opts = DefaultParseOptions()
	}
	if opts.MaxSize > 0 {
		r = io.LimitReader(r, opts.MaxSize+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	if opts.MaxSize > 0 && int64(len(data)) > opts.MaxSize {
		return nil, malformedReport(fmt.Sprintf("report exceeds %d bytes", opts.MaxSize), nil)
	}

	return Parse(data, opts)
}

// Parse decodes stats JSON. When both "modules" and "children" are present,
// "modules" wins, even when it is empty.
func Parse(data []byte, opts *ParseOptions) (*Report, error) {
	if opts == nil {
		opts = DefaultParseOptions()
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, malformedReport("empty input", nil)
	}
	if trimmed[0] != '{' {
		return nil, malformedReport("report must be a JSON object", nil)
	}

	var raw rawReport
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, malformedReport("invalid JSON", err)
	}

	report := &Report{PublicPath: decodePublicPath(raw.PublicPath)}

	list := raw.Modules
	if isNull(list) {
		inner, err := firstChildModules(raw.Children)
		if err != nil {
			return nil, err
		}
		list = inner
		report.Wrapped = true
	}

	if err := report.decodeModules(list, opts.Strict); err != nil {
		return nil, err
	}
	return report, nil
}

func firstChildModules(children []json.RawMessage) (json.RawMessage, error) {
	if len(children) == 0 {
		return nil, malformedReport("neither modules nor children[0].modules present", nil)
	}

	var first struct {
		Modules json.RawMessage `json:"modules"`
	}
	if err := json.Unmarshal(children[0], &first); err != nil {
		return nil, malformedReport("children[0] is not an object", err)
	}
	if isNull(first.Modules) {
		return nil, malformedReport("children[0] has no modules", nil)
	}
	return first.Modules, nil
}

func (r *Report) decodeModules(list json.RawMessage, strict bool) error {
	var entries []json.RawMessage
	if err := json.Unmarshal(list, &entries); err != nil {
		return malformedReport("modules is not a list", err)
	}

	r.Modules = make([]Module, 0, len(entries))
	for i, entry := range entries {
		m, ok, err := decodeModule(entry, strict)
		if err != nil {
			return fmt.Errorf("modules[%d]: %w", i, err)
		}
		if !ok {
			r.Skipped++
			continue
		}
		r.Modules = append(r.Modules, m)
	}
	return nil
}

// decodeModule returns ok=false for a record that lenient mode drops.
func decodeModule(entry json.RawMessage, strict bool) (Module, bool, error) {
	var raw rawModule
	dec := json.NewDecoder(bytes.NewReader(entry))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		if strict {
			return Module{}, false, malformedRecord("record is not an object", err)
		}
		return Module{}, false, nil
	}

	if raw.Name == nil {
		if strict {
			return Module{}, false, malformedRecord("record has no name", nil)
		}
		return Module{}, false, nil
	}

	size, err := decodeSize(raw.Size, strict)
	if err != nil {
		return Module{}, false, err
	}
	return Module{Name: *raw.Name, Size: size}, true, nil
}

func decodeSize(n json.Number, strict bool) (int64, error) {
	if n == "" {
		if strict {
			return 0, malformedRecord("record has no size", nil)
		}
		return 0, nil
	}

	if v, err := n.Int64(); err == nil {
		if v < 0 {
			if strict {
				return 0, malformedRecord(fmt.Sprintf("negative size %d", v), nil)
			}
			return 0, nil
		}
		return v, nil
	}

	if strict {
		return 0, malformedRecord(fmt.Sprintf("size %s is not an integer", n), nil)
	}
	f, err := n.Float64()
	if err != nil || f < 0 || math.IsNaN(f) {
		return 0, nil
	}
	if f > math.MaxInt64 {
		return math.MaxInt64, nil
	}
	return int64(f), nil
}

func decodePublicPath(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}
