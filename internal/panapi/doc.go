// Package panapi is the transport adapter and response classifier for the
// manager's XML operational API.
//
// Every request is an HTTP GET to https://<manager>/api/ with the query
// parameters type=op, cmd=<xml command> and, for device-scoped commands,
// target=<serial>. Credentials are sent with HTTP Basic Auth.
//
// # Usage Example
//
//	client := panapi.NewClient("panorama.example.com")
//	client.SetAuth("admin", password)
//
//	devices, err := client.ConnectedDevices(ctx)
//	if err != nil {
//	    fmt.Println(panapi.ShortMessage(err))
//	}
//
// # Error Handling
//
// All failures are *Error values with a Type:
//   - Transport: ErrTypeConnectionFailed, ErrTypeTimeout, ErrTypeHTTPStatus, ErrTypeTransport
//   - Body: ErrTypeParse (malformed XML)
//   - Manager: ErrTypeAPI, with ErrTypeAuth for rejected credentials
//
// API error messages are matched against a list of ErrorRules. The default
// rule maps any message containing "authentication failed" (case-insensitive)
// to ErrTypeAuth; more rules can be supplied from configuration.
//
// # TLS
//
// Certificate verification is disabled. Management interfaces commonly use
// self-signed certificates.
package panapi
