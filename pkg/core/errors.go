package core

import (
	"fmt"
	"strings"
)

// NetworkError reasons.
const (
	NetworkHostUnbindable = "host-unbindable"
	NetworkPortExhausted  = "port-exhausted"
)

// CompileError reports that the configuration module failed to compile
// (syntax or resolution errors, or the compiled artifact could not be
// written).
type CompileError struct {
	File   string
	Detail string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s: %s", e.File, e.Detail)
}

// LoadError reports that a compiled configuration module could not be
// loaded or executed: the artifact failed to decode, the module raised
// during init, configure() is missing or not callable, or the call raised.
type LoadError struct {
	File    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s", e.File, e.Message)
}

// ShapeError reports that configure() returned something other than a dict.
type ShapeError struct {
	Got string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("configure() must return a dict, got %s", e.Got)
}

// ValidationError reports that a derivation pass rejected a field value.
type ValidationError struct {
	Field   string
	Value   any
	Allowed []string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s: unsupported value %v (allowed: %s)",
		e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

// NetworkError reports an address negotiation failure. Reason distinguishes
// a host that cannot be bound at all from an exhausted port search.
type NetworkError struct {
	Host   string
	Port   int
	Reason string
	Err    error
}

func (e *NetworkError) Error() string {
	switch e.Reason {
	case NetworkPortExhausted:
		return fmt.Sprintf("no open port found on %s starting from %d", e.Host, e.Port)
	default:
		return fmt.Sprintf("cannot bind host %s: %v", e.Host, e.Err)
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// PluginError reports that a registered plugin hook failed.
type PluginError struct {
	Plugin string
	Err    error
}

func (e *PluginError) Error() string {
	return fmt.Sprintf("plugin %q: %v", e.Plugin, e.Err)
}

func (e *PluginError) Unwrap() error { return e.Err }
