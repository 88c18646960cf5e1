// File: api/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package api defines the public contracts of hioload-poll: the poller
// vtable, the kernel backend seam, fd event status encoding and the
// readiness bits exchanged between the poll loop and I/O callbacks.
package api
