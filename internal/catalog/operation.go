package catalog

import (
	"bytes"
	"fmt"
	"reflect"
	"text/template"
)

// Scope says where an operation is addressed
type Scope string

const (
	// ScopeDevice operations carry a target serial and run on one firewall
	ScopeDevice Scope = "device"
	// ScopeManager operations run on the manager itself (no target)
	ScopeManager Scope = "manager"
)

// Parameter names accepted in an operation's "requires" list
const (
	ParamVersion = "version"
	ParamJobID   = "job_id"
)

// paramFields maps parameter names to Params struct fields
var paramFields = map[string]string{
	ParamVersion: "Version",
	ParamJobID:   "JobID",
}

// Params is the typed substitution record for command templates.
// Values are inserted verbatim; callers must only pass versions taken from a
// manager-provided version list.
type Params struct {
	Version string
	JobID   string
}

// value returns the parameter value for a parameter name
func (p Params) value(name string) string {
	field, ok := paramFields[name]
	if !ok {
		return ""
	}
	return reflect.ValueOf(p).FieldByName(field).String()
}

// Operation is an immutable catalog entry
type Operation struct {
	// Key is the short identifier used on the command line (e.g., "download")
	Key string `yaml:"key"`

	// Name is the human-readable operation name (e.g., "Download Version")
	Name string `yaml:"name"`

	// Command is the XML command template
	Command string `yaml:"command"`

	// GeneratesJob marks operations the manager runs as background jobs
	GeneratesJob bool `yaml:"generates_job"`

	// Requires lists the parameter names the template needs
	Requires []string `yaml:"requires,omitempty"`

	// Scope is "device" (default) or "manager"
	Scope Scope `yaml:"scope,omitempty"`

	// Internal operations back the engine itself and are not offered to users
	Internal bool `yaml:"internal,omitempty"`

	// Dangerous operations ask for confirmation in the CLI
	Dangerous bool `yaml:"dangerous,omitempty"`

	tmpl *template.Template
}

// TargetsDevice reports whether requests for this operation carry a target serial
func (o *Operation) TargetsDevice() bool {
	return o.Scope != ScopeManager
}

// RequiresParam reports whether the operation declares the named parameter
func (o *Operation) RequiresParam(name string) bool {
	for _, r := range o.Requires {
		if r == name {
			return true
		}
	}
	return false
}

// Check verifies every required parameter has a value
func (o *Operation) Check(p Params) error {
	for _, name := range o.Requires {
		if p.value(name) == "" {
			return &MissingParameterError{
				Operation: o.Key,
				Parameter: name,
				Reason:    "no value supplied",
			}
		}
	}
	return nil
}

// Render fills the command template for one request
func (o *Operation) Render(p Params) (string, error) {
	if err := o.Check(p); err != nil {
		return "", err
	}
	if o.tmpl == nil {
		return "", fmt.Errorf("operation %q was not loaded through a catalog", o.Key)
	}

	var buf bytes.Buffer
	if err := o.tmpl.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("failed to render operation %q: %w", o.Key, err)
	}
	return buf.String(), nil
}

// String returns the operation name
func (o *Operation) String() string {
	return o.Name
}
