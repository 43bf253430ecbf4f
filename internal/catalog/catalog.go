package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"
	"text/template"
	"text/template/parse"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Keys of the built-in operations
const (
	KeyCheck    = "check"
	KeyDownload = "download"
	KeyInstall  = "install"
	KeyReboot   = "reboot"
	KeyDevices  = "devices"
	KeyShowJob  = "job"
)

// Catalog is the validated, read-only set of operations
type Catalog struct {
	ops   []*Operation
	index map[string]*Operation
}

// catalogContainer is for YAML unmarshaling
type catalogContainer struct {
	Operations []*Operation `yaml:"operations"`
}

var (
	globalCatalog     *Catalog
	globalCatalogOnce sync.Once
	globalCatalogErr  error
)

// Load parses and validates the embedded catalog.
// The catalog is loaded only once; later calls return the same instance.
func Load() (*Catalog, error) {
	globalCatalogOnce.Do(func() {
		globalCatalog, globalCatalogErr = Parse(catalogYAML)
	})
	return globalCatalog, globalCatalogErr
}

// MustLoad is like Load but panics if the embedded catalog is invalid
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a catalog from YAML and validates every operation's template
// against its declared parameters. All problems are reported together.
func Parse(data []byte) (*Catalog, error) {
	var container catalogContainer
	if err := yaml.Unmarshal(data, &container); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{
		index: make(map[string]*Operation, len(container.Operations)),
	}

	var errs error
	for _, op := range container.Operations {
		if op == nil {
			continue
		}
		if op.Scope == "" {
			op.Scope = ScopeDevice
		}
		if err := c.add(op); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		return nil, errs
	}

	return c, nil
}

// add validates one operation and registers it
func (c *Catalog) add(op *Operation) error {
	if op.Key == "" {
		return fmt.Errorf("operation %q has no key", op.Name)
	}
	if _, dup := c.index[op.Key]; dup {
		return fmt.Errorf("duplicate operation key %q", op.Key)
	}
	if op.Name == "" {
		op.Name = op.Key
	}
	if op.Command == "" {
		return fmt.Errorf("operation %q has no command", op.Key)
	}
	if op.Scope != ScopeDevice && op.Scope != ScopeManager {
		return fmt.Errorf("operation %q: unknown scope %q", op.Key, op.Scope)
	}

	tmpl, err := template.New(op.Key).Option("missingkey=error").Parse(op.Command)
	if err != nil {
		return fmt.Errorf("operation %q: invalid command template: %w", op.Key, err)
	}

	var errs error

	for _, name := range op.Requires {
		if _, ok := paramFields[name]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("operation %q: unknown parameter %q", op.Key, name))
		}
	}

	declared := make(map[string]bool, len(op.Requires))
	for _, name := range op.Requires {
		if field, ok := paramFields[name]; ok {
			declared[field] = true
		}
	}

	for _, field := range templateFields(tmpl) {
		if !declared[field] {
			errs = multierr.Append(errs, &MissingParameterError{
				Operation: op.Key,
				Parameter: field,
				Reason:    "referenced by template but not declared in requires",
			})
		}
	}

	if op.GeneratesJob && !op.RequiresParam(ParamVersion) {
		errs = multierr.Append(errs, &MissingParameterError{
			Operation: op.Key,
			Parameter: ParamVersion,
			Reason:    "job-generating operations must require a version",
		})
	}

	if errs != nil {
		return errs
	}

	op.tmpl = tmpl
	c.ops = append(c.ops, op)
	c.index[op.Key] = op
	return nil
}

// Get returns the operation with the given key
func (c *Catalog) Get(key string) (*Operation, bool) {
	op, ok := c.index[key]
	return op, ok
}

// ByName returns the operation with the given human-readable name
func (c *Catalog) ByName(name string) (*Operation, bool) {
	for _, op := range c.ops {
		if op.Name == name {
			return op, true
		}
	}
	return nil, false
}

// Operations returns the user-facing operations in catalog order
func (c *Catalog) Operations() []*Operation {
	ops := make([]*Operation, 0, len(c.ops))
	for _, op := range c.ops {
		if !op.Internal {
			ops = append(ops, op)
		}
	}
	return ops
}

// All returns every operation, including internal ones, in catalog order
func (c *Catalog) All() []*Operation {
	ops := make([]*Operation, len(c.ops))
	copy(ops, c.ops)
	return ops
}

// Keys returns the sorted keys of the user-facing operations
func (c *Catalog) Keys() []string {
	var keys []string
	for _, op := range c.Operations() {
		keys = append(keys, op.Key)
	}
	sort.Strings(keys)
	return keys
}

// templateFields returns the top-level field names a template references
// (e.g., "Version" for {{.Version}})
func templateFields(tmpl *template.Template) []string {
	seen := make(map[string]bool)
	var fields []string

	var walk func(n parse.Node)
	walk = func(n parse.Node) {
		switch n := n.(type) {
		case nil:
			return
		case *parse.ListNode:
			if n == nil {
				return
			}
			for _, child := range n.Nodes {
				walk(child)
			}
		case *parse.ActionNode:
			walk(n.Pipe)
		case *parse.IfNode:
			walk(n.Pipe)
			walk(n.List)
			walk(n.ElseList)
		case *parse.RangeNode:
			walk(n.Pipe)
			walk(n.List)
			walk(n.ElseList)
		case *parse.WithNode:
			walk(n.Pipe)
			walk(n.List)
			walk(n.ElseList)
		case *parse.TemplateNode:
			walk(n.Pipe)
		case *parse.PipeNode:
			if n == nil {
				return
			}
			for _, cmd := range n.Cmds {
				walk(cmd)
			}
		case *parse.CommandNode:
			for _, arg := range n.Args {
				walk(arg)
			}
		case *parse.ChainNode:
			walk(n.Node)
		case *parse.FieldNode:
			if len(n.Ident) > 0 && !seen[n.Ident[0]] {
				seen[n.Ident[0]] = true
				fields = append(fields, n.Ident[0])
			}
		}
	}

	for _, t := range tmpl.Templates() {
		if t.Tree != nil {
			walk(t.Tree.Root)
		}
	}
	return fields
}
