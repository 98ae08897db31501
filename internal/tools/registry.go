package tools

import "encoding/json"

// DispatchEvent captures one tool dispatch invocation and its result, for
// observability hooks (logging, fact extraction) that run after dispatch.
type DispatchEvent struct {
	Name   string
	Args   json.RawMessage
	Result Result
}

// OnDispatch, if set, is called once per Dispatch after the handler (or
// timeout/panic recovery) completes.
func (r *Registry) OnDispatch(fn func(DispatchEvent)) {
	r.onDispatch = fn
}
