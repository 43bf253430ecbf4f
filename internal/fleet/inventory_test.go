package fleet

import (
	"fmt"
	"sync"
	"testing"
)

func TestInventory_Lookup(t *testing.T) {
	inv := NewInventory(Device{Serial: "111", Hostname: "fw-a"})

	if got := inv.Hostname("111"); got != "fw-a" {
		t.Errorf("Hostname(111) = %v, want fw-a", got)
	}

	// Unknown serials fall back to the serial itself
	if got := inv.Hostname("999"); got != "999" {
		t.Errorf("Hostname(999) = %v, want 999", got)
	}

	if _, ok := inv.Get("999"); ok {
		t.Error("Get(999) should report unknown serial")
	}
}

func TestInventory_AddIgnoresEmptySerial(t *testing.T) {
	inv := NewInventory(Device{Hostname: "no-serial"})
	if inv.Len() != 0 {
		t.Errorf("Len() = %d, want 0", inv.Len())
	}
}

func TestInventory_Replace(t *testing.T) {
	inv := NewInventory(Device{Serial: "111", Hostname: "fw-a"})
	inv.Replace(Device{Serial: "222", Hostname: "fw-b"})

	if _, ok := inv.Get("111"); ok {
		t.Error("Replace() should drop previous devices")
	}
	if got := inv.Hostname("222"); got != "fw-b" {
		t.Errorf("Hostname(222) = %v, want fw-b", got)
	}
}

func TestInventory_Resolve(t *testing.T) {
	inv := NewInventory(
		Device{Serial: "111", Hostname: "fw-a"},
		Device{Serial: "222", Hostname: "fw-b"},
	)

	devices, unknown := inv.Resolve([]string{"222", "333", "222", "", "111"})

	if len(devices) != 3 {
		t.Fatalf("Resolve() returned %d devices, want 3", len(devices))
	}
	if devices[0].Hostname != "fw-b" || devices[1].Serial != "333" || devices[2].Hostname != "fw-a" {
		t.Errorf("Resolve() = %v, order or hostnames wrong", devices)
	}
	if devices[1].Hostname != "333" {
		t.Errorf("unknown device hostname = %v, want serial fallback", devices[1].Hostname)
	}
	if len(unknown) != 1 || unknown[0] != "333" {
		t.Errorf("unknown = %v, want [333]", unknown)
	}
}

func TestInventory_DevicesSorted(t *testing.T) {
	inv := NewInventory(
		Device{Serial: "3", Hostname: "fw-c"},
		Device{Serial: "1", Hostname: "fw-a"},
		Device{Serial: "2", Hostname: "fw-b"},
	)

	devices := inv.Devices()
	for i, want := range []string{"fw-a", "fw-b", "fw-c"} {
		if devices[i].Hostname != want {
			t.Errorf("Devices()[%d].Hostname = %v, want %v", i, devices[i].Hostname, want)
		}
	}
}

func TestInventory_ConcurrentAccess(t *testing.T) {
	inv := NewInventory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			serial := fmt.Sprintf("%03d", i)
			inv.Add(Device{Serial: serial, Hostname: "fw-" + serial})
		}(i)
		go func(i int) {
			defer wg.Done()
			_ = inv.Hostname(fmt.Sprintf("%03d", i))
			_ = inv.Devices()
		}(i)
	}
	wg.Wait()

	if inv.Len() != 50 {
		t.Errorf("Len() = %d, want 50", inv.Len())
	}
}
