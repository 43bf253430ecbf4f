// Package catalog is the static registry of manager operations and the
// renderer that turns an operation into a command envelope.
//
// The catalog is embedded YAML. Each operation carries an XML command
// template rendered with text/template against the typed Params record:
//
//	cat := catalog.MustLoad()
//	op, _ := cat.Get(catalog.KeyDownload)
//	cmd, err := op.Render(catalog.Params{Version: "10.2.3"})
//	// cmd == "<request><system><software><download><version>10.2.3</version>..."
//
// # Validation
//
// Template/parameter consistency is checked when the catalog is parsed, not
// per call. Parse rejects an operation whose template references a field
// missing from its "requires" list, and any job-generating operation that
// does not require a version. Both surface as *MissingParameterError.
//
// Render additionally checks that every required parameter has a value.
// Values are not escaped.
package catalog
