package panapi

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/muurk/fwfleet/internal/fleet"
)

// Response status attribute values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// DefaultAPIErrorMessage is used when an error response carries no message
const DefaultAPIErrorMessage = "Unknown API error"

// Response is a successfully classified manager response. Payload accessors
// extract operation-specific data by structural path.
type Response struct {
	// Status is the root status attribute ("success" for classified responses)
	Status string

	root *node
}

// SoftwareVersion is one entry of a software check result
type SoftwareVersion struct {
	Version    string
	Filename   string
	ReleasedOn string
	Downloaded bool
	Current    bool
	Latest     bool
}

// JobSnapshot is one observation of a job's state
type JobSnapshot struct {
	// Status is the manager's job status code (e.g., "ACT", "FIN", "PEND")
	Status string
	// Result is the job result code (e.g., "OK", "FAIL", "PEND")
	Result string
	// Progress is the raw progress text, empty when absent
	Progress string
	// Details are the job's detail lines
	Details []string
}

// Percent returns the progress as an integer percentage, if numeric
func (s JobSnapshot) Percent() (int, bool) {
	if s.Progress == "" {
		return 0, false
	}
	p, err := strconv.Atoi(strings.TrimSuffix(s.Progress, "%"))
	if err != nil {
		return 0, false
	}
	return p, true
}

// Classifier turns raw response bodies into Responses or typed errors
type Classifier struct {
	// Rules map API error messages to error types; first match wins
	Rules []ErrorRule
}

// NewClassifier creates a classifier. With no rules, DefaultRules are used.
func NewClassifier(rules ...ErrorRule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Classifier{Rules: rules}
}

// Classify parses a response body. It returns a *Response for success
// envelopes, an *Error of type ErrTypeAPI/ErrTypeAuth for status="error",
// or an *Error of type ErrTypeParse for malformed XML. Classify does not
// retain body.
func (c *Classifier) Classify(body []byte) (*Response, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, NewParseError("empty response body", nil)
	}

	var root node
	if err := xml.Unmarshal(body, &root); err != nil {
		return nil, NewParseError("response is not well-formed XML", err)
	}

	status, _ := root.attr("status")
	if status == StatusError {
		msg := errorMessage(&root)
		return nil, NewAPIError(classifyMessage(c.rules(), msg), msg)
	}

	return &Response{
		Status: status,
		root:   &root,
	}, nil
}

func (c *Classifier) rules() []ErrorRule {
	if c == nil || c.Rules == nil {
		return DefaultRules()
	}
	return c.Rules
}

// errorMessage extracts the first <msg> descendant's text, falling back to
// its <line> children, then to DefaultAPIErrorMessage
func errorMessage(root *node) string {
	msg := root.descendant("msg")
	if msg == nil {
		return DefaultAPIErrorMessage
	}
	if text := msg.text(); text != "" {
		return text
	}

	var lines []string
	for _, line := range msg.findAll("line") {
		if text := line.text(); text != "" {
			lines = append(lines, text)
		}
	}
	if len(lines) > 0 {
		return strings.Join(lines, "; ")
	}
	return DefaultAPIErrorMessage
}

// Devices returns the connected-device list (result/devices/entry), skipping
// entries missing a hostname or serial, sorted by hostname then serial
func (r *Response) Devices() []fleet.Device {
	var devices []fleet.Device
	for _, entry := range r.root.findAll("result/devices/entry") {
		hostname := entry.find("hostname")
		serial := entry.find("serial")
		if hostname == nil || serial == nil {
			continue
		}
		if hostname.text() == "" || serial.text() == "" {
			continue
		}
		devices = append(devices, fleet.Device{
			Serial:   serial.text(),
			Hostname: hostname.text(),
		})
	}

	fleet.SortDevices(devices)
	return devices
}

// Versions returns the software version strings in manager order
func (r *Response) Versions() []string {
	versions := []string{}
	for _, v := range r.root.findAll("result/sw-updates/versions/entry/version") {
		if text := v.text(); text != "" {
			versions = append(versions, text)
		}
	}
	return versions
}

// SoftwareVersions returns the full software check entries in manager order
func (r *Response) SoftwareVersions() []SoftwareVersion {
	var out []SoftwareVersion
	for _, entry := range r.root.findAll("result/sw-updates/versions/entry") {
		version := entry.find("version").text()
		if version == "" {
			continue
		}
		out = append(out, SoftwareVersion{
			Version:    version,
			Filename:   entry.find("filename").text(),
			ReleasedOn: entry.find("released-on").text(),
			Downloaded: yes(entry.find("downloaded").text()),
			Current:    yes(entry.find("current").text()),
			Latest:     yes(entry.find("latest").text()),
		})
	}
	return out
}

// JobID returns the job identifier of a job-generating command (result/job)
func (r *Response) JobID() (string, bool) {
	job := r.root.find("result/job")
	if job == nil || job.text() == "" {
		return "", false
	}
	return job.text(), true
}

// JobSnapshot returns the job status from a "show jobs" response. The second
// return value is false when there is no result/job/status element.
func (r *Response) JobSnapshot() (JobSnapshot, bool) {
	status := r.root.find("result/job/status")
	if status == nil {
		return JobSnapshot{}, false
	}

	snap := JobSnapshot{
		Status:   status.text(),
		Result:   r.root.find("result/job/result").text(),
		Progress: r.root.find("result/job/progress").text(),
	}
	for _, line := range r.root.findAll("result/job/details/line") {
		if text := line.text(); text != "" {
			snap.Details = append(snap.Details, text)
		}
	}
	return snap, true
}

// Message returns the informational message of a success response, if any
func (r *Response) Message() string {
	msg := r.root.descendant("msg")
	if msg == nil {
		return ""
	}
	if text := msg.text(); text != "" {
		return text
	}
	var lines []string
	for _, line := range msg.findAll("line") {
		if text := line.text(); text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "; ")
}

func yes(s string) bool {
	return strings.EqualFold(s, "yes")
}
