package types

import (
	"fmt"
	"strings"
)

// ComponentState is the administrative lifecycle state of the hosted service.
type ComponentState int32

const (
	StateLoaded ComponentState = iota
	StateStandby
	StateOnline
)

var componentStateNames = [...]string{
	StateLoaded:  "LOADED",
	StateStandby: "STANDBY",
	StateOnline:  "ONLINE",
}

func (s ComponentState) String() string {
	if s < 0 || int(s) >= len(componentStateNames) {
		return fmt.Sprintf("ComponentState(%d)", int32(s))
	}
	return componentStateNames[s]
}

// MarshalText renders the state as its upper-case name.
func (s ComponentState) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(componentStateNames) {
		return nil, fmt.Errorf("invalid component state %d", int32(s))
	}
	return []byte(componentStateNames[s]), nil
}

func (s *ComponentState) UnmarshalText(b []byte) error {
	v, err := ParseComponentState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseComponentState accepts the state name in any case.
func ParseComponentState(name string) (ComponentState, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	for i, s := range componentStateNames {
		if s == n {
			return ComponentState(i), nil
		}
	}
	return 0, fmt.Errorf("unknown component state %q", name)
}

// ObsState is the observation state of a scheduling block.
type ObsState int32

const (
	ObsDraft ObsState = iota
	ObsSubmitted
	ObsScheduled
	ObsExecuting
	ObsProcessing
	ObsPendingArchive
	ObsCompleted
	ObsErrored
	ObsRetired
)

var obsStateNames = [...]string{
	ObsDraft:          "DRAFT",
	ObsSubmitted:      "SUBMITTED",
	ObsScheduled:      "SCHEDULED",
	ObsExecuting:      "EXECUTING",
	ObsProcessing:     "PROCESSING",
	ObsPendingArchive: "PENDINGARCHIVE",
	ObsCompleted:      "COMPLETED",
	ObsErrored:        "ERRORED",
	ObsRetired:        "RETIRED",
}

func (s ObsState) String() string {
	if s < 0 || int(s) >= len(obsStateNames) {
		return fmt.Sprintf("ObsState(%d)", int32(s))
	}
	return obsStateNames[s]
}

func (s ObsState) Valid() bool { return s >= 0 && int(s) < len(obsStateNames) }

func (s ObsState) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid obs state %d", int32(s))
	}
	return []byte(obsStateNames[s]), nil
}

func (s *ObsState) UnmarshalText(b []byte) error {
	v, err := ParseObsState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseObsState accepts the state name in any case.
func ParseObsState(name string) (ObsState, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	for i, s := range obsStateNames {
		if s == n {
			return ObsState(i), nil
		}
	}
	return 0, fmt.Errorf("unknown obs state %q", name)
}
