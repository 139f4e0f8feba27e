package asr

import "fmt"

// DevicePreference is the accelerator fallback order. "auto" in config
// resolves against this list; the literal device strings belong to the
// inference runtime, not to us.
var DevicePreference = []string{"cuda", "mps", "cpu"}

// DeviceProbe reports whether a device is usable. Implementations typically
// query the sidecar's status endpoint.
type DeviceProbe func(device string) bool

// SelectDevice walks the preference list and returns the first device whose
// probe succeeds. A probe failure on one device falls through silently to
// the next; only when the whole chain fails does ErrDeviceUnavailable
// surface.
func SelectDevice(preference []string, probe DeviceProbe) (string, error) {
	if len(preference) == 0 {
		preference = DevicePreference
	}
	for _, dev := range preference {
		if probe(dev) {
			return dev, nil
		}
	}
	return "", fmt.Errorf("%w: tried %v", ErrDeviceUnavailable, preference)
}
