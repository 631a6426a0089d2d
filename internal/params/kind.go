// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines Kind, the closed set of parameter types, and its mapping
// to cty types.
package params

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Kind is the value type of a parameter.
type Kind int

const (
	KindInvalid Kind = iota
	KindFloat
	KindInt
	KindBool
	KindString
	KindEnum
)

var kindNames = map[Kind]string{
	KindFloat:  "float",
	KindInt:    "int",
	KindBool:   "bool",
	KindString: "string",
	KindEnum:   "enum",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}

// ParseKind maps a manifest type keyword to a Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown parameter type %q, expected one of float, int, bool, string, enum", name)
}

// CtyType is the cty type values of this kind are stored as.
func (k Kind) CtyType() cty.Type {
	switch k {
	case KindFloat, KindInt:
		return cty.Number
	case KindBool:
		return cty.Bool
	case KindString, KindEnum:
		return cty.String
	default:
		return cty.DynamicPseudoType
	}
}
