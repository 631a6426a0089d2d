// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package params describes the parameters a model family accepts and turns
// raw user input into typed values.
//
// A Schema is an ordered list of Params, usually decoded from the `param`
// blocks of a model manifest. Every Param has one Kind out of a closed set
// (float, int, bool, string, enum) and each Kind has exactly one coercion
// function. Values are held as cty values so that HCL defaults and input
// arriving from forms, flags or JSON share one representation.
//
// Binding input never fails as a whole: a field that cannot be coerced is
// logged and left at its default, and the remaining fields still apply.
package params
