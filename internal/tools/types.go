// Package tools implements COCO's Tool Registry: a single flat catalog of
// named, schema-described handlers the engine exposes to the LLM and
// dispatches tool_use blocks against.
package tools

import (
	"context"
	"encoding/json"
	"time"

	"coco/internal/cocoerr"
	"coco/internal/llm"
)

// Handler executes a tool call against validated input and returns a value
// serializable to a short human-readable string.
type Handler func(ctx context.Context, raw json.RawMessage) (any, error)

// AvailabilityProbe reports whether a tool's dependencies are currently
// satisfied (API keys present, binary on PATH, etc.).
type AvailabilityProbe func() bool

// Definition fully describes one tool: its name, JSON-Schema-like input
// contract, handler, category, and availability.
type Definition struct {
	Name        string
	Description string
	Category    string
	InputSchema map[string]any
	Handler     Handler
	TimeoutMS   int
	Probe       AvailabilityProbe
}

// Available reports whether this tool's handler is non-nil and its
// dependencies (per Probe) are satisfied. A nil Probe means always
// available.
func (d Definition) Available() bool {
	if d.Handler == nil {
		return false
	}
	if d.Probe == nil {
		return true
	}
	return d.Probe()
}

// Result is what Dispatch returns for every tool call, whether it
// succeeded or failed.
type Result struct {
	OK           bool
	Value        string
	ErrorKind    cocoerr.Kind
	ErrorMessage string
	ElapsedMS    int64
}

// Registry holds every registered tool definition, keyed by name.
type Registry struct {
	byName     map[string]*Definition
	order      []string // registration order, for stable SchemasForLLM()
	onDispatch func(DispatchEvent)
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]*Definition{}}
}

// Register adds def to the registry. Tool catalogs are wired once at
// startup, so a duplicate name is a programming error; Register panics
// rather than silently overwriting.
func (r *Registry) Register(def Definition) {
	if _, exists := r.byName[def.Name]; exists {
		panic("tools: duplicate tool registration: " + def.Name)
	}
	d := def
	r.byName[def.Name] = &d
	r.order = append(r.order, def.Name)
}

// SchemasForLLM emits schemas for every available tool, in registration
// order.
func (r *Registry) SchemasForLLM() []llm.ToolSchema {
	out := make([]llm.ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		d := r.byName[name]
		if !d.Available() {
			continue
		}
		out = append(out, llm.ToolSchema{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.InputSchema,
		})
	}
	return out
}

// Dispatch looks up name and invokes its handler with raw input, enforcing
// the tool's declared timeout. A missing or unavailable handler returns
// UnknownTool rather than crashing the engine; a handler that returns a
// *cocoerr.Error is reported with that Kind; any other error or panic is
// reported as Internal.
func (r *Registry) Dispatch(ctx context.Context, name string, raw json.RawMessage) Result {
	start := time.Now()
	d, ok := r.byName[name]
	if !ok || !d.Available() {
		res := Result{
			OK:           false,
			ErrorKind:    cocoerr.UnknownTool,
			ErrorMessage: "no such tool: " + name,
			ElapsedMS:    time.Since(start).Milliseconds(),
		}
		r.notify(name, raw, res)
		return res
	}

	timeout := time.Duration(d.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	value, err := r.invoke(callCtx, d, raw)
	elapsed := time.Since(start).Milliseconds()

	var res Result
	switch {
	case err != nil && callCtx.Err() != nil:
		res = Result{OK: false, ErrorKind: cocoerr.ExternalFailure, ErrorMessage: "tool timed out: " + name, ElapsedMS: elapsed}
	case err != nil:
		res = Result{OK: false, ErrorKind: cocoerr.KindOf(err), ErrorMessage: err.Error(), ElapsedMS: elapsed}
	default:
		res = Result{OK: true, Value: value, ElapsedMS: elapsed}
	}
	r.notify(name, raw, res)
	return res
}

func (r *Registry) notify(name string, raw json.RawMessage, res Result) {
	if r.onDispatch != nil {
		r.onDispatch(DispatchEvent{Name: name, Args: raw, Result: res})
	}
}

// invoke runs the handler and recovers any panic, converting it to an
// Internal error so one broken tool never crashes the engine.
func (r *Registry) invoke(ctx context.Context, d *Definition, raw json.RawMessage) (value string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = cocoerr.New(cocoerr.Internal, "tool panicked")
		}
	}()

	out, herr := d.Handler(ctx, raw)
	if herr != nil {
		return "", herr
	}
	return stringify(out), nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
