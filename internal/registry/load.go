package registry

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/atlasgrid/internal/ctxlog"
	"github.com/specialistvlad/atlasgrid/internal/fsutil"
	"github.com/specialistvlad/atlasgrid/internal/params"
)

// manifest is the decoded form of one `model` block.
type manifest struct {
	Description string
	Schema      params.Schema
	Source      string
}

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "model", LabelNames: []string{"name"}},
	},
}

var modelBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "description"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "param", LabelNames: []string{"name"}},
	},
}

// loadManifests decodes the embedded manifests and then every .hcl file under
// modelsPath. A model defined on disk replaces an embedded one of the same
// name; two definitions from the same origin are an error.
func loadManifests(ctx context.Context, modelsPath string, embedded []embeddedManifest) (map[string]*manifest, error) {
	logger := ctxlog.FromContext(ctx)
	parser := hclparse.NewParser()

	embeddedOut := make(map[string]*manifest)
	for _, em := range embedded {
		file, diags := parser.ParseHCL(em.src, em.filename)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse embedded manifest %s: %w", em.filename, diags)
		}
		if err := decodeFile(file, em.filename, embeddedOut); err != nil {
			return nil, err
		}
	}

	diskOut := make(map[string]*manifest)
	if modelsPath != "" {
		logger.Debug("Registry loading manifests from models path...", "path", modelsPath)
		filePaths, err := fsutil.FindFilesByExtension(modelsPath, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("failed to walk models directory %s: %w", modelsPath, err)
		}
		if len(filePaths) == 0 && len(embedded) == 0 {
			logger.Warn("No .hcl manifest files found in path", "path", modelsPath)
		}
		for _, filePath := range filePaths {
			file, diags := parser.ParseHCLFile(filePath)
			if diags.HasErrors() {
				return nil, fmt.Errorf("failed to parse HCL file %s: %w", filePath, diags)
			}
			if err := decodeFile(file, filePath, diskOut); err != nil {
				return nil, err
			}
			logger.Debug("Successfully loaded manifest.", "file", filePath)
		}
	}

	for name, m := range diskOut {
		if prev, ok := embeddedOut[name]; ok {
			logger.Debug("Manifest on disk overrides embedded manifest.", "model", name, "file", m.Source, "embedded", prev.Source)
		}
		embeddedOut[name] = m
	}
	return embeddedOut, nil
}

func decodeFile(file *hcl.File, filename string, out map[string]*manifest) error {
	content, diags := file.Body.Content(fileSchema)
	if diags.HasErrors() {
		return fmt.Errorf("invalid manifest %s: %w", filename, diags)
	}
	for _, block := range content.Blocks.OfType("model") {
		name := block.Labels[0]
		if prev, exists := out[name]; exists {
			return fmt.Errorf("invalid manifest %s: %w", filename, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Duplicate model definition",
				Detail:   fmt.Sprintf("A model named '%s' is already defined in %s.", name, prev.Source),
				Subject:  &block.DefRange,
			}})
		}
		m, diags := decodeModel(block)
		if diags.HasErrors() {
			return fmt.Errorf("invalid model '%s' in %s: %w", name, filename, diags)
		}
		m.Source = filename
		out[name] = m
	}
	return nil
}

func decodeModel(block *hcl.Block) (*manifest, hcl.Diagnostics) {
	content, diags := block.Body.Content(modelBodySchema)
	if diags.HasErrors() {
		return nil, diags
	}
	m := &manifest{}
	if attr, ok := content.Attributes["description"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &m.Description)...)
	}
	schema, pDiags := params.DecodeParams(content.Blocks)
	diags = append(diags, pDiags...)
	m.Schema = schema
	return m, diags
}
