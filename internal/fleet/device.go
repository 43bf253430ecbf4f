package fleet

import (
	"fmt"
	"sort"
)

// Device represents a managed firewall as seen by the manager
type Device struct {
	// Serial is the manager-assigned serial number (e.g., "007051000123456").
	// It is the value sent as the API "target" parameter.
	Serial string

	// Hostname is the device hostname reported by the manager (display only)
	Hostname string
}

// String returns a human-readable string representation of the device
func (d Device) String() string {
	return d.Label()
}

// DisplayName returns the hostname, falling back to the serial when the
// hostname is unknown
func (d Device) DisplayName() string {
	if d.Hostname == "" {
		return d.Serial
	}
	return d.Hostname
}

// Label returns "hostname (serial)", or just the serial when no hostname is known
func (d Device) Label() string {
	if d.Hostname == "" || d.Hostname == d.Serial {
		return d.Serial
	}
	return fmt.Sprintf("%s (%s)", d.Hostname, d.Serial)
}

// SortDevices orders devices by hostname, then serial
func SortDevices(devices []Device) {
	sort.SliceStable(devices, func(i, j int) bool {
		if devices[i].Hostname != devices[j].Hostname {
			return devices[i].Hostname < devices[j].Hostname
		}
		return devices[i].Serial < devices[j].Serial
	})
}

// UniqueDevices returns devices with repeated serials removed, keeping the
// first occurrence and the original order
func UniqueDevices(devices []Device) []Device {
	seen := make(map[string]bool, len(devices))
	out := make([]Device, 0, len(devices))
	for _, d := range devices {
		if seen[d.Serial] {
			continue
		}
		seen[d.Serial] = true
		out = append(out, d)
	}
	return out
}
