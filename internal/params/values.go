// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines Values and the fail-soft binding of user input against a
// Schema.
package params

import (
	"context"
	"maps"
	"slices"

	"github.com/specialistvlad/atlasgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Values maps parameter names to coerced values.
type Values map[string]cty.Value

// Float returns the named value as float64, or 0 if missing.
func (v Values) Float(name string) float64 {
	var f float64
	v.decode(name, &f)
	return f
}

// Int returns the named value as int, or 0 if missing.
func (v Values) Int(name string) int {
	var i int
	v.decode(name, &i)
	return i
}

// Bool returns the named value as bool, or false if missing.
func (v Values) Bool(name string) bool {
	var b bool
	v.decode(name, &b)
	return b
}

// String returns the named value as string, or "" if missing.
func (v Values) String(name string) string {
	var s string
	v.decode(name, &s)
	return s
}

func (v Values) decode(name string, target any) {
	val, ok := v[name]
	if !ok || val.IsNull() || !val.IsKnown() {
		return
	}
	_ = gocty.FromCtyValue(val, target)
}

// Clone returns a shallow copy; cty values are immutable.
func (v Values) Clone() Values {
	return maps.Clone(v)
}

// Native converts the values to plain Go values for JSON and logs.
func (v Values) Native() map[string]any {
	out := make(map[string]any, len(v))
	for _, name := range slices.Sorted(maps.Keys(v)) {
		val := v[name]
		switch {
		case val.IsNull() || !val.IsKnown():
			out[name] = nil
		case val.Type() == cty.Number:
			f, _ := val.AsBigFloat().Float64()
			out[name] = f
		case val.Type() == cty.Bool:
			out[name] = val.True()
		case val.Type() == cty.String:
			out[name] = val.AsString()
		default:
			out[name] = val.GoString()
		}
	}
	return out
}

// Bind starts from the schema defaults and applies raw on top. Unknown names
// and values that fail coercion are logged and skipped; the rest still apply.
func Bind(ctx context.Context, schema Schema, raw map[string]cty.Value) Values {
	return bind(ctx, schema, schema.Defaults(), raw)
}

// BindStrings is Bind for textual input.
func BindStrings(ctx context.Context, schema Schema, raw map[string]string) Values {
	vals := make(map[string]cty.Value, len(raw))
	for k, s := range raw {
		vals[k] = cty.StringVal(s)
	}
	return Bind(ctx, schema, vals)
}

// Apply coerces raw on top of an existing set of values, with the same
// fail-soft rules as Bind.
func Apply(ctx context.Context, schema Schema, base Values, raw map[string]cty.Value) Values {
	return bind(ctx, schema, base.Clone(), raw)
}

func bind(ctx context.Context, schema Schema, out Values, raw map[string]cty.Value) Values {
	logger := ctxlog.FromContext(ctx)
	for _, name := range slices.Sorted(maps.Keys(raw)) {
		p, ok := schema.Lookup(name)
		if !ok {
			logger.Warn("Ignoring unknown parameter.", "param", name)
			continue
		}
		v, err := Coerce(p, raw[name])
		if err != nil {
			logger.Warn("Ignoring invalid parameter value.", "param", name, "type", p.Kind.String(), "error", err)
			continue
		}
		out[name] = v
	}
	return out
}
