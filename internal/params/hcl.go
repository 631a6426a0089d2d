// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file decodes `param` blocks of a model manifest into a Schema and
// reports problems as HCL diagnostics pointing at the offending block.
package params

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
)

// paramBodySchema is the HCL schema for the body of a `param` block.
var paramBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		// `type` and `default` are required, but we check for them manually
		// to provide a better error message.
		{Name: "type"},
		{Name: "default"},
		{Name: "label"},
		{Name: "unit"},
		{Name: "description"},
		{Name: "min"},
		{Name: "max"},
		{Name: "step"},
		{Name: "choices"},
	},
}

// DecodeParams decodes every `param` block in declaration order.
func DecodeParams(blocks hcl.Blocks) (Schema, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	schema := make(Schema, 0, len(blocks))
	seen := make(map[string]struct{})

	for _, block := range blocks.OfType("param") {
		name := block.Labels[0]
		if _, exists := seen[name]; exists {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate parameter definition",
				Detail:   fmt.Sprintf("A parameter named '%s' has already been defined.", name),
				Subject:  &block.DefRange,
			})
			continue
		}
		seen[name] = struct{}{}

		p, pDiags := decodeParam(name, block)
		diags = append(diags, pDiags...)
		if pDiags.HasErrors() {
			continue
		}
		schema = append(schema, p)
	}
	return schema, diags
}

func decodeParam(name string, block *hcl.Block) (Param, hcl.Diagnostics) {
	p := Param{Name: name}

	content, diags := block.Body.Content(paramBodySchema)
	if diags.HasErrors() {
		return p, diags
	}

	typeAttr, ok := content.Attributes["type"]
	if !ok {
		return p, append(diags, missingAttr(block, "type"))
	}
	kind, kindDiags := decodeKind(typeAttr.Expr)
	diags = append(diags, kindDiags...)
	if kindDiags.HasErrors() {
		return p, diags
	}
	p.Kind = kind

	for attrName, target := range map[string]*string{
		"label":       &p.Label,
		"unit":        &p.Unit,
		"description": &p.Description,
	} {
		if attr, ok := content.Attributes[attrName]; ok {
			diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, target)...)
		}
	}
	for attrName, target := range map[string]**float64{
		"min":  &p.Min,
		"max":  &p.Max,
		"step": &p.Step,
	} {
		if attr, ok := content.Attributes[attrName]; ok {
			var f float64
			numDiags := gohcl.DecodeExpression(attr.Expr, nil, &f)
			diags = append(diags, numDiags...)
			if !numDiags.HasErrors() {
				*target = &f
			}
		}
	}
	if attr, ok := content.Attributes["choices"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &p.Choices)...)
	}
	if diags.HasErrors() {
		return p, diags
	}

	if p.Kind == KindEnum && len(p.Choices) == 0 {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing enum choices",
			Detail:   fmt.Sprintf("The enum parameter '%s' must declare a non-empty 'choices' list.", name),
			Subject:  &block.DefRange,
		})
		return p, diags
	}
	if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid parameter range",
			Detail:   fmt.Sprintf("The parameter '%s' has min %g greater than max %g.", name, *p.Min, *p.Max),
			Subject:  &block.DefRange,
		})
		return p, diags
	}

	defaultAttr, ok := content.Attributes["default"]
	if !ok {
		return p, append(diags, missingAttr(block, "default"))
	}
	// A nil eval context is used because defaults must be literal values.
	raw, valDiags := defaultAttr.Expr.Value(nil)
	diags = append(diags, valDiags...)
	if valDiags.HasErrors() {
		return p, diags
	}
	def, err := Coerce(p, raw)
	if err != nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid default value",
			Detail:   fmt.Sprintf("The default value for '%s' is not a valid %s: %s.", name, p.Kind, err),
			Subject:  defaultAttr.Expr.Range().Ptr(),
		})
		return p, diags
	}
	p.Default = def
	return p, diags
}

// decodeKind reads a bare type keyword such as `float` or `enum`.
func decodeKind(expr hcl.Expression) (Kind, hcl.Diagnostics) {
	traversal, tDiags := hcl.AbsTraversalForExpr(expr)
	if tDiags.HasErrors() || len(traversal) != 1 {
		return KindInvalid, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid type specification",
			Detail:   "The 'type' attribute must be one of the keywords float, int, bool, string or enum.",
			Subject:  expr.Range().Ptr(),
		}}
	}
	kind, err := ParseKind(traversal.RootName())
	if err != nil {
		return KindInvalid, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported type",
			Detail:   err.Error(),
			Subject:  expr.Range().Ptr(),
		}}
	}
	return kind, nil
}

func missingAttr(block *hcl.Block, name string) *hcl.Diagnostic {
	r := block.Body.MissingItemRange()
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  fmt.Sprintf("Missing '%s' attribute", name),
		Detail:   fmt.Sprintf("The '%s' attribute is required for all param blocks.", name),
		Subject:  &r,
	}
}
