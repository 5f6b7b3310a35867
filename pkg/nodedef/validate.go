package nodedef

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// CredentialRefsKey is the configuration key holding credential references.
const CredentialRefsKey = "credentialRefs"

// ValidationResult is the outcome of validating a node configuration.
// Errors make the configuration unusable for execution; Warnings are purely
// advisory. Both slices are never nil.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (r *ValidationResult) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ValidateConfig validates cfg without any named rules available.
// Custom rules degrade to warnings; see [Definition.ValidateConfigIn].
func (d *Definition) ValidateConfig(cfg map[string]any) ValidationResult {
	return d.ValidateConfigIn(nil, cfg)
}

// ValidateConfigIn validates cfg against the definition's properties and
// credentials, resolving custom rules in env.
//
// For every property a missing required value is an error. When the property
// carries a custom rule, that rule alone decides the rest; otherwise the
// built-in type, range and membership checks apply. Every required
// credential type must be referenced from cfg["credentialRefs"].
func (d *Definition) ValidateConfigIn(env *Env, cfg map[string]any) ValidationResult {
	res := ValidationResult{Errors: []string{}, Warnings: []string{}}

	for _, p := range d.Properties {
		label := p.DisplayLabel()
		v, present := lookup(cfg, p.Name)

		if !present && (p.Required || hasRule(p, RuleRequired)) {
			res.errorf("%s es requerido", label)
			continue
		}

		if r, ok := p.customRule(); ok {
			fn, found := env.rule(r.ID)
			if !found {
				res.warnf("%s: regla desconocida %q", label, r.ID)
				continue
			}
			if msg := fn(v, present); msg != "" {
				res.errorf("%s %s", label, msg)
			}
			continue
		}

		if !present {
			continue
		}
		checkBuiltin(&res, p, label, v)
	}

	for _, c := range d.Credentials {
		if c.Required && !hasCredential(cfg, c.Type) {
			res.errorf("Credencial requerida: %s", c.Type)
		}
	}

	for _, k := range sortedKeys(cfg) {
		if k == CredentialRefsKey {
			continue
		}
		if _, ok := d.Property(k); !ok {
			res.warnf("Campo desconocido: %s", k)
		}
	}

	res.Valid = len(res.Errors) == 0
	return res
}

func checkBuiltin(res *ValidationResult, p PropertyDef, label string, v any) {
	switch p.Type {
	case TypeNumber:
		n, ok := toFloat(v)
		if !ok {
			res.errorf("%s debe ser un número", label)
			return
		}
		for _, r := range p.Rules {
			if r.Kind != RuleRange {
				continue
			}
			if r.Min != nil && n < *r.Min {
				res.errorf("%s debe ser >= %s", label, formatNumber(*r.Min))
			}
			if r.Max != nil && n > *r.Max {
				res.errorf("%s debe ser <= %s", label, formatNumber(*r.Max))
			}
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			res.errorf("%s debe ser verdadero o falso", label)
		}
	case TypeEnum:
		s, ok := v.(string)
		if !ok || !slices.Contains(p.Options, s) {
			res.errorf("%s debe ser uno de: %s", label, strings.Join(p.Options, ", "))
		}
	case TypeJSON:
		if s, ok := v.(string); ok && !json.Valid([]byte(s)) {
			res.errorf("%s debe ser JSON válido", label)
		}
	case TypeString, TypeCode:
		if _, ok := v.(string); !ok {
			res.errorf("%s debe ser texto", label)
		}
	}

	for _, r := range p.Rules {
		if r.Kind != RuleEnum {
			continue
		}
		if s, ok := v.(string); !ok || !slices.Contains(r.Values, s) {
			res.errorf("%s debe ser uno de: %s", label, strings.Join(r.Values, ", "))
		}
	}
}

func hasRule(p PropertyDef, kind RuleKind) bool {
	for _, r := range p.Rules {
		if r.Kind == kind {
			return true
		}
	}
	return false
}

// lookup treats nil and empty strings as absent.
func lookup(cfg map[string]any, name string) (any, bool) {
	v, ok := cfg[name]
	if !ok || v == nil {
		return nil, false
	}
	if s, isStr := v.(string); isStr && s == "" {
		return v, false
	}
	return v, true
}

// hasCredential accepts either a map keyed by credential type or a list of
// {"type": ..., "id": ...} objects.
func hasCredential(cfg map[string]any, credType string) bool {
	switch refs := cfg[CredentialRefsKey].(type) {
	case map[string]any:
		v, ok := refs[credType]
		if !ok || v == nil {
			return false
		}
		s, isStr := v.(string)
		return !isStr || s != ""
	case map[string]string:
		return refs[credType] != ""
	case []any:
		for _, item := range refs {
			if m, ok := item.(map[string]any); ok && m["type"] == credType {
				return true
			}
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func formatNumber(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
