package fleet

import (
	"sync"
)

// Inventory is the serial → hostname lookup table shared by dispatch tasks
// and job trackers. It is populated from the manager's connected-device list
// and is safe for concurrent use.
type Inventory struct {
	mu      sync.RWMutex
	devices map[string]Device
}

// NewInventory creates an inventory seeded with the given devices
func NewInventory(devices ...Device) *Inventory {
	inv := &Inventory{
		devices: make(map[string]Device),
	}
	inv.Add(devices...)
	return inv
}

// Add inserts or replaces devices keyed by serial. Entries without a serial
// are ignored.
func (inv *Inventory) Add(devices ...Device) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	for _, d := range devices {
		if d.Serial == "" {
			continue
		}
		inv.devices[d.Serial] = d
	}
}

// Replace discards the current contents and stores the given devices
func (inv *Inventory) Replace(devices ...Device) {
	fresh := make(map[string]Device, len(devices))
	for _, d := range devices {
		if d.Serial != "" {
			fresh[d.Serial] = d
		}
	}

	inv.mu.Lock()
	inv.devices = fresh
	inv.mu.Unlock()
}

// Get returns the device for a serial, and whether it was known
func (inv *Inventory) Get(serial string) (Device, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	d, ok := inv.devices[serial]
	return d, ok
}

// Lookup returns the device for a serial. Unknown serials resolve to a
// device whose hostname is the serial itself.
func (inv *Inventory) Lookup(serial string) Device {
	if d, ok := inv.Get(serial); ok {
		return d
	}
	return Device{Serial: serial, Hostname: serial}
}

// Hostname returns the hostname for a serial, or the serial when unknown
func (inv *Inventory) Hostname(serial string) string {
	return inv.Lookup(serial).DisplayName()
}

// Resolve maps serials to devices, preserving order and dropping duplicates.
// The second return value lists serials that were not in the inventory.
func (inv *Inventory) Resolve(serials []string) ([]Device, []string) {
	seen := make(map[string]bool, len(serials))
	devices := make([]Device, 0, len(serials))
	var unknown []string

	for _, serial := range serials {
		if serial == "" || seen[serial] {
			continue
		}
		seen[serial] = true

		d, ok := inv.Get(serial)
		if !ok {
			unknown = append(unknown, serial)
			d = Device{Serial: serial, Hostname: serial}
		}
		devices = append(devices, d)
	}

	return devices, unknown
}

// Devices returns all known devices sorted by hostname, then serial
func (inv *Inventory) Devices() []Device {
	inv.mu.RLock()
	devices := make([]Device, 0, len(inv.devices))
	for _, d := range inv.devices {
		devices = append(devices, d)
	}
	inv.mu.RUnlock()

	SortDevices(devices)
	return devices
}

// Len returns the number of known devices
func (inv *Inventory) Len() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return len(inv.devices)
}
