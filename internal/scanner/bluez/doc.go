// Package bluez implements the scanning backend that delegates all
// Bluetooth control to the system BlueZ daemon, for hosts where raw HCI
// access is unavailable or undesired. It satisfies the same backend
// contract as the raw-socket backend.
package bluez
