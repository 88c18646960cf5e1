//go:build !linux

// File: poll/backend_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Non-Linux builds have no kernel backend; callers must supply one
// through Options.Backend (the fake package does for tests).

package poll

import (
	"github.com/momentics/hioload-poll/api"
)

func defaultBackendFactory(sizeHint int) (api.Backend, error) {
	_ = sizeHint
	return nil, api.ErrNotSupported
}
