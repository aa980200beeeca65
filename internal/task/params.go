package task

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Params is an immutable set of named parameter values. Two Params values
// with the same name/value pairs are equal regardless of construction order.
type Params struct {
	values map[string]string
}

// NewParams builds a Params set from a map. The map is copied, so later
// mutation of the argument does not affect the returned value.
func NewParams(values map[string]string) Params {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return Params{values: copied}
}

// Merge returns a new Params set containing the receiver's values overlaid
// with the given overrides. Neither input is modified.
func (p Params) Merge(overrides map[string]string) Params {
	merged := make(map[string]string, len(p.values)+len(overrides))
	for k, v := range p.values {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return Params{values: merged}
}

// Get returns the raw value for name and whether it is present.
func (p Params) Get(name string) (string, bool) {
	v, ok := p.values[name]
	return v, ok
}

// String returns the value for name, or def when absent.
func (p Params) String(name, def string) string {
	if v, ok := p.values[name]; ok {
		return v
	}
	return def
}

// Int returns the value for name parsed as an integer, or def when absent.
func (p Params) Int(name string, def int) (int, error) {
	v, ok := p.values[name]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parameter %q: %w", name, err)
	}
	return n, nil
}

// Float returns the value for name parsed as a float, or def when absent.
func (p Params) Float(name string, def float64) (float64, error) {
	v, ok := p.values[name]
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parameter %q: %w", name, err)
	}
	return f, nil
}

// Len returns the number of parameters.
func (p Params) Len() int {
	return len(p.values)
}

// Names returns the parameter names in sorted order.
func (p Params) Names() []string {
	names := make([]string, 0, len(p.values))
	for k := range p.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Canonical serializes the parameters into a stable "k=v,k=v" form with
// names sorted, so value-equal sets produce identical strings.
func (p Params) Canonical() string {
	var sb strings.Builder
	for i, name := range p.Names() {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteString(p.values[name])
	}
	return sb.String()
}

// Equal reports value equality of two parameter sets.
func (p Params) Equal(other Params) bool {
	if len(p.values) != len(other.values) {
		return false
	}
	for k, v := range p.values {
		if ov, ok := other.values[k]; !ok || ov != v {
			return false
		}
	}
	return true
}
