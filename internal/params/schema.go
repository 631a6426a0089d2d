// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines Param and Schema, the typed form of a manifest's
// parameter declarations.
package params

import (
	"slices"

	"github.com/zclconf/go-cty/cty"
)

// Param declares one input of a model family.
type Param struct {
	Name        string
	Kind        Kind
	Default     cty.Value
	Label       string
	Unit        string
	Description string

	// Min, Max and Step apply to float and int parameters. Step is a hint
	// for input controls and is not enforced.
	Min  *float64
	Max  *float64
	Step *float64

	// Choices lists the allowed values of an enum parameter.
	Choices []string
}

// DisplayLabel returns the label, falling back to the name.
func (p Param) DisplayLabel() string {
	if p.Label != "" {
		return p.Label
	}
	return p.Name
}

// Schema is the ordered parameter list of a model family.
type Schema []Param

// Lookup finds a parameter by name.
func (s Schema) Lookup(name string) (Param, bool) {
	i := slices.IndexFunc(s, func(p Param) bool { return p.Name == name })
	if i < 0 {
		return Param{}, false
	}
	return s[i], true
}

// Names returns parameter names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, p := range s {
		names[i] = p.Name
	}
	return names
}

// Defaults returns the default value of every parameter.
func (s Schema) Defaults() Values {
	v := make(Values, len(s))
	for _, p := range s {
		v[p.Name] = p.Default
	}
	return v
}
