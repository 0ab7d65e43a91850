// Package ipc carries practice-session control traffic over a per-user unix
// socket. One JSON object per line in each direction: a client sends a
// Request, the session answers with exactly one Response.
package ipc

// Request names one session control command: status, record, stop, flip,
// say, next, or quit. The session validates it against its current phase.
type Request struct {
	Command string `json:"command"`
}

// Response reports whether the session accepted a command, the session phase
// at the time, and either a human-readable message or a rejection reason.
type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
