package chatkit

import "fmt"

// Target selects which backend service a request is sent to.
type Target int

const (
	TargetAPIV1 Target = iota
	TargetAPIV2
	TargetAPIV3
	TargetAuthorizer
	TargetCursors
	TargetScheduler
)

var targets = []Target{
	TargetAPIV1,
	TargetAPIV2,
	TargetAPIV3,
	TargetAuthorizer,
	TargetCursors,
	TargetScheduler,
}

// Service returns the platform service name and version behind t.
func (t Target) Service() (name, version string) {
	switch t {
	case TargetAPIV1:
		return "chatkit", "v1"
	case TargetAPIV2:
		return "chatkit", "v2"
	case TargetAPIV3:
		return "chatkit", "v3"
	case TargetAuthorizer:
		return "chatkit_authorizer", "v2"
	case TargetCursors:
		return "chatkit_cursors", "v2"
	case TargetScheduler:
		return "chatkit_scheduler", "v1"
	default:
		return "", ""
	}
}

func (t Target) String() string {
	name, version := t.Service()
	if name == "" {
		return fmt.Sprintf("Target(%d)", int(t))
	}
	return name + "/" + version
}
