package hclgraph

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/rendergraph/internal/ctxlog"
	"github.com/vk/rendergraph/internal/flavor"
	"github.com/vk/rendergraph/internal/fsutil"
	"github.com/vk/rendergraph/internal/rendergraph"
)

// Loader is the HCL implementation of rendergraph.Loader. The source passed
// to Load is a graph file, or a directory whose .hcl files together declare
// one graph.
type Loader struct{}

// NewLoader creates a new HCL graph loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ rendergraph.Loader = (*Loader)(nil)

type sourceFile struct {
	name string
	src  []byte
}

// Load reads and parses the graph at path.
func (l *Loader) Load(ctx context.Context, path string, f flavor.Flavor) (*rendergraph.RenderGraph, error) {
	paths, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", rendergraph.ErrParse, path, err)
	}
	files := make([]sourceFile, 0, len(paths))
	for _, p := range paths {
		src, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %w", rendergraph.ErrParse, p, err)
		}
		files = append(files, sourceFile{name: p, src: src})
	}
	return l.build(ctx, path, files, f)
}

// Parse builds a graph from HCL source. filename is only used in messages.
func (l *Loader) Parse(ctx context.Context, filename string, src []byte, f flavor.Flavor) (*rendergraph.RenderGraph, error) {
	return l.build(ctx, filename, []sourceFile{{name: filename, src: src}}, f)
}

func (l *Loader) build(ctx context.Context, name string, files []sourceFile, f flavor.Flavor) (*rendergraph.RenderGraph, error) {
	logger := ctxlog.FromContext(ctx).With("file", name, "flavor", f.String())
	logger.Debug("HCL graph loader started.", "files", len(files))

	if !f.Known() {
		return nil, fmt.Errorf("%w: unknown build flavor %q", rendergraph.ErrValidation, f)
	}

	parser := hclparse.NewParser()
	parsed := make([]*hcl.File, 0, len(files))
	for _, sf := range files {
		file, diags := parser.ParseHCL(sf.src, sf.name)
		if diags.HasErrors() {
			return nil, fmt.Errorf("%w in %s: %w", rendergraph.ErrParse, sf.name, diags)
		}
		parsed = append(parsed, file)
	}

	content, diags := hcl.MergeFiles(parsed).Content(rootSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w in %s: %w", rendergraph.ErrParse, name, diags)
	}

	blocks := make([]decodedBlock, 0, len(content.Blocks))
	for _, block := range content.Blocks {
		decoded, blockDiags := decodeBlock(block)
		diags = append(diags, blockDiags...)
		blocks = append(blocks, decoded)
	}
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w in %s: %w", rendergraph.ErrParse, name, diags)
	}
	logger.Debug("Decoded HCL blocks.", "count", len(blocks))

	b := newBuilder()
	if attr, ok := content.Attributes["name"]; ok {
		b.graph.Name = b.literal(attr.Expr.Range(), "graph name", attr.Expr)
	}
	b.declare(blocks)
	b.translate(blocks)
	b.order()

	if len(b.errs) > 0 {
		logger.Debug("HCL graph failed validation.", "problems", len(b.errs))
		return nil, fmt.Errorf("%w in %s:\n- %s", rendergraph.ErrValidation, name, strings.Join(b.errs, "\n- "))
	}

	g := b.graph
	logger.Debug("HCL graph loading complete.",
		"variables", len(g.Variables), "enums", len(g.Enums), "nodes", len(g.Nodes), "set_vars", len(g.SetVars))
	return g, nil
}

type decodedBlock struct {
	typ   string
	name  string
	rng   hcl.Range
	value any
}

func decodeBlock(block *hcl.Block) (decodedBlock, hcl.Diagnostics) {
	var target any
	switch block.Type {
	case blockEnum:
		target = &enumBlock{}
	case blockVariable:
		target = &variableBlock{}
	case blockTexture:
		target = &textureBlock{}
	case blockBuffer:
		target = &bufferBlock{}
	case blockComputeShader:
		target = &computeShaderBlock{}
	case blockDrawCall:
		target = &drawCallBlock{}
	case blockCopyResource:
		target = &copyResourceBlock{}
	case blockSetVariable:
		target = &setVariableBlock{}
	}
	diags := gohcl.DecodeBody(block.Body, nil, target)
	return decodedBlock{typ: block.Type, name: block.Labels[0], rng: block.DefRange, value: target}, diags
}

// literalText renders a literal value as the comma separated text the value
// codec understands. Tuples and lists are flattened.
func literalText(v cty.Value) (string, error) {
	if v.IsNull() {
		return "", nil
	}
	if !v.IsWhollyKnown() {
		return "", fmt.Errorf("value is not known")
	}
	ty := v.Type()
	if ty.IsTupleType() || ty.IsListType() || ty.IsSetType() {
		parts := make([]string, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			s, err := literalText(elem)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ", "), nil
	}
	if !ty.IsPrimitiveType() {
		return "", fmt.Errorf("expected a number, bool, string or list, got %s", ty.FriendlyName())
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", err
	}
	return s.AsString(), nil
}
