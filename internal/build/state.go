package build

// State is the position of a build session in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateSandboxPrepared
	StateCleaned
	StateOutputStaged
	StatePreHooksRun
	StateTemplatesLoaded
	StatePagesLoaded
	StatePagesRendered
	StatePostHooksRun
	StatePublished
	StateBuilt
	StateFailed
)

var stateNames = [...]string{
	StateIdle:            "idle",
	StateSandboxPrepared: "sandbox_prepared",
	StateCleaned:         "cleaned",
	StateOutputStaged:    "output_staged",
	StatePreHooksRun:     "pre_hooks_run",
	StateTemplatesLoaded: "templates_loaded",
	StatePagesLoaded:     "pages_loaded",
	StatePagesRendered:   "pages_rendered",
	StatePostHooksRun:    "post_hooks_run",
	StatePublished:       "published",
	StateBuilt:           "built",
	StateFailed:          "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further stage can run from s.
func (s State) Terminal() bool {
	return s == StateBuilt || s == StateFailed
}
