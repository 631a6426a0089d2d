// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file converts raw values into the type a parameter declares and
// checks range and choice constraints. Each kind has exactly one coercer.
package params

import (
	"fmt"
	"math/big"
	"slices"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// coercers holds the single coercion function of every kind.
var coercers = map[Kind]func(Param, cty.Value) (cty.Value, error){
	KindFloat:  coerceFloat,
	KindInt:    coerceInt,
	KindBool:   coerceBool,
	KindString: coerceString,
	KindEnum:   coerceEnum,
}

// Coerce converts raw to the kind of p and checks p's constraints.
func Coerce(p Param, raw cty.Value) (cty.Value, error) {
	fn, ok := coercers[p.Kind]
	if !ok {
		return cty.NilVal, fmt.Errorf("parameter %q has invalid kind", p.Name)
	}
	if raw.IsNull() || !raw.IsKnown() {
		return cty.NilVal, fmt.Errorf("parameter %q: value is null", p.Name)
	}
	return fn(p, raw)
}

// CoerceString coerces textual input, as it arrives from forms and flags.
func CoerceString(p Param, raw string) (cty.Value, error) {
	return Coerce(p, cty.StringVal(raw))
}

func coerceFloat(p Param, raw cty.Value) (cty.Value, error) {
	v, err := convert.Convert(raw, cty.Number)
	if err != nil {
		return cty.NilVal, fmt.Errorf("parameter %q: expected a number: %w", p.Name, err)
	}
	if err := checkRange(p, v.AsBigFloat()); err != nil {
		return cty.NilVal, err
	}
	return v, nil
}

func coerceInt(p Param, raw cty.Value) (cty.Value, error) {
	v, err := convert.Convert(raw, cty.Number)
	if err != nil {
		return cty.NilVal, fmt.Errorf("parameter %q: expected an integer: %w", p.Name, err)
	}
	bf := v.AsBigFloat()
	if !bf.IsInt() {
		return cty.NilVal, fmt.Errorf("parameter %q: expected an integer, got %s", p.Name, bf.Text('g', -1))
	}
	if err := checkRange(p, bf); err != nil {
		return cty.NilVal, err
	}
	return v, nil
}

func coerceBool(p Param, raw cty.Value) (cty.Value, error) {
	v, err := convert.Convert(raw, cty.Bool)
	if err != nil {
		return cty.NilVal, fmt.Errorf("parameter %q: expected true or false: %w", p.Name, err)
	}
	return v, nil
}

func coerceString(p Param, raw cty.Value) (cty.Value, error) {
	v, err := convert.Convert(raw, cty.String)
	if err != nil {
		return cty.NilVal, fmt.Errorf("parameter %q: expected a string: %w", p.Name, err)
	}
	return v, nil
}

func coerceEnum(p Param, raw cty.Value) (cty.Value, error) {
	v, err := convert.Convert(raw, cty.String)
	if err != nil {
		return cty.NilVal, fmt.Errorf("parameter %q: expected one of %v: %w", p.Name, p.Choices, err)
	}
	if !slices.Contains(p.Choices, v.AsString()) {
		return cty.NilVal, fmt.Errorf("parameter %q: %q is not one of %v", p.Name, v.AsString(), p.Choices)
	}
	return v, nil
}

func checkRange(p Param, n *big.Float) error {
	if p.Min != nil && n.Cmp(big.NewFloat(*p.Min)) < 0 {
		return fmt.Errorf("parameter %q: %s is below the minimum %g", p.Name, n.Text('g', -1), *p.Min)
	}
	if p.Max != nil && n.Cmp(big.NewFloat(*p.Max)) > 0 {
		return fmt.Errorf("parameter %q: %s is above the maximum %g", p.Name, n.Text('g', -1), *p.Max)
	}
	return nil
}
