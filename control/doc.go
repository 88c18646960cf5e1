// File: control/doc.go
// Author: momentics <momentics@gmail.com>

// Package control carries the runtime knobs and observability surface
// of the poller: typed configuration with reload listeners, a counter
// registry and debug probes.
package control
