// Package registry implements the HandlerRegistry: discovery of workflow and
// activity entry points from methods on user-supplied handler structs.
//
// Discovery is reflection-based (spec.md §9 allows any facility mapping "a
// user-declared type" to "named handlers"). A struct-tag "attribute" reader
// is the primary mechanism; a naming-convention reader is a selective
// fallback, enabled per-type via WithNameConvention, mirroring the teacher's
// composable-reader style (prefer attributes, fall back to annotations).
package registry

import (
	"context"
	"reflect"
	"strings"
)

// Kind distinguishes a workflow entry point from an activity entry point.
type Kind int

const (
	// KindWorkflow marks a method as a workflow entry point.
	KindWorkflow Kind = iota
	// KindActivity marks a method as an activity entry point.
	KindActivity
)

// reservedNames are never auto-registered, even when they match the naming
// convention, to avoid colliding with host-reserved keywords (spec.md §6).
var reservedNames = map[string]struct{}{
	"readonly": {},
	"Readonly": {},
}

// Handler is one discovered entry point: a bound method matching
// func(context.Context, I) (O, error).
type Handler struct {
	Name  string
	Kind  Kind
	In    reflect.Type
	Out   reflect.Type
	value reflect.Value
}

// Invoke calls the handler with a decoded input value, returning its
// decoded output value or an error. arg must be assignable to h.In.
func (h Handler) Invoke(ctx context.Context, arg any) (any, error) {
	argVal := reflect.ValueOf(arg)
	if !argVal.IsValid() {
		argVal = reflect.Zero(h.In)
	}
	results := h.value.Call([]reflect.Value{reflect.ValueOf(ctx), argVal})
	out := results[0].Interface()
	errVal := results[1]
	if errVal.IsNil() {
		return out, nil
	}
	return out, errVal.Interface().(error)
}

// options configures how Scan discovers handlers on a single type.
type options struct {
	nameConvention bool
}

// Option configures Scan.
type Option func(*options)

// WithNameConvention enables the legacy annotation reader fallback: when no
// rr struct tag names a method explicitly, a method whose name ends in
// "Workflow" or "Activity" is registered under its bare name. Disabled by
// default, matching spec.md §9's note that engaging it is an explicit
// configuration toggle.
func WithNameConvention(enabled bool) Option {
	return func(o *options) { o.nameConvention = enabled }
}

// ctxType and errType are used by toHandler to check the required signature
// for any discovered handler: func(context.Context, I) (O, error).
var (
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

// Scan discovers workflow and activity handlers on target, a pointer to a
// user-declared struct. Methods are registered when they carry an `rr`
// struct tag on a field (the attribute reader) naming them explicitly, as
// described by scanTags; when no tag registrations exist for a method and
// the name-convention option is enabled, methods are registered by the
// *Workflow / *Activity naming convention instead.
func Scan(target any, opts ...Option) ([]Handler, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	v := reflect.ValueOf(target)
	t := v.Type()

	tagged := scanTags(t)

	var handlers []Handler
	seen := make(map[string]struct{})

	for name, kind := range tagged {
		method := v.MethodByName(name)
		if !method.IsValid() {
			continue
		}
		h, ok := toHandler(name, kind, method)
		if !ok {
			continue
		}
		handlers = append(handlers, h)
		seen[name] = struct{}{}
	}

	if o.nameConvention {
		for i := 0; i < v.NumMethod(); i++ {
			m := t.Method(i)
			if _, ok := seen[m.Name]; ok {
				continue
			}
			if _, reserved := reservedNames[m.Name]; reserved {
				continue
			}
			kind, ok := kindByConvention(m.Name)
			if !ok {
				continue
			}
			h, ok := toHandler(m.Name, kind, v.Method(i))
			if !ok {
				continue
			}
			handlers = append(handlers, h)
			seen[m.Name] = struct{}{}
		}
	}

	return handlers, nil
}

// toHandler validates that method matches func(context.Context, I) (O, error)
// and builds a Handler for it. Methods that don't match the shape are
// silently skipped, since not every exported method on a handler struct is
// necessarily meant to be an entry point.
func toHandler(name string, kind Kind, method reflect.Value) (Handler, bool) {
	mt := method.Type()
	if mt.Kind() != reflect.Func {
		return Handler{}, false
	}
	if mt.NumIn() != 2 || mt.NumOut() != 2 {
		return Handler{}, false
	}
	if !mt.In(0).Implements(ctxType) && mt.In(0) != ctxType {
		return Handler{}, false
	}
	if !mt.Out(1).Implements(errType) {
		return Handler{}, false
	}
	return Handler{
		Name:  name,
		Kind:  kind,
		In:    mt.In(1),
		Out:   mt.Out(0),
		value: method,
	}, true
}

// kindByConvention maps a method name to a Kind using the *Workflow /
// *Activity suffix convention, the legacy annotation reader fallback.
func kindByConvention(name string) (Kind, bool) {
	switch {
	case strings.HasSuffix(name, "Workflow"):
		return KindWorkflow, true
	case strings.HasSuffix(name, "Activity"):
		return KindActivity, true
	default:
		return 0, false
	}
}
