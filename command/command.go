// Package command defines the wire-level data model exchanged between the
// worker runtime and its host process: a tagged Command record that is
// either an inbound/outbound request or a response correlated to one by id.
package command

import (
	commonpb "go.temporal.io/api/common/v1"
	failurepb "go.temporal.io/api/failure/v1"
)

// HeaderTaskQueue is the header key that routes a Request to a specific
// Worker. Requests without this header are factory-scoped (see router.Router).
const HeaderTaskQueue = "taskQueue"

// Command is a tagged record delivered across the host boundary. A Command
// with a non-empty Name is a Request; a Command with an empty Name is a
// Response correlated to a prior request by ID.
//
// The zero value is not a valid Command: callers should use NewRequest or
// NewResponse.
type Command struct {
	// ID correlates a Response to the Request it answers. For outbound
	// requests issued by worker code, ID is assigned by client.Client.
	ID uint64

	// Name is the request kind (e.g. "StartWorkflow", "InvokeActivity",
	// "GetWorkerInfo"). Empty for a Response.
	Name string

	// Payloads carries the request/response body, encoded via a
	// DataConverter. Uses Temporal's own Payload message since this wire
	// format is itself Temporal's.
	Payloads []*commonpb.Payload

	// Header carries free-form string metadata. HeaderTaskQueue routes
	// requests to a specific Worker.
	Header map[string]string

	// Options carries request-specific parameters that are not part of the
	// payload body (timeouts, retry policy, workflow id, signal name, ...).
	Options map[string]any

	// Failure is set on a Response that represents a failed outcome. Nil on
	// a successful Response or on any Request.
	Failure *failurepb.Failure
}

// NewRequest builds an outbound or inbound Request command.
func NewRequest(id uint64, name string, payloads []*commonpb.Payload, header map[string]string, options map[string]any) *Command {
	return &Command{ID: id, Name: name, Payloads: payloads, Header: header, Options: options}
}

// NewResponse builds a successful Response command correlated to id.
func NewResponse(id uint64, payloads []*commonpb.Payload) *Command {
	return &Command{ID: id, Payloads: payloads}
}

// NewFailureResponse builds a failed Response command correlated to id.
func NewFailureResponse(id uint64, failure *failurepb.Failure) *Command {
	return &Command{ID: id, Failure: failure}
}

// IsRequest reports whether c is a request (carries a non-empty Name).
func (c *Command) IsRequest() bool {
	return c != nil && c.Name != ""
}

// IsResponse reports whether c is a response (empty Name).
func (c *Command) IsResponse() bool {
	return c != nil && c.Name == ""
}

// IsFailure reports whether c is a failed response.
func (c *Command) IsFailure() bool {
	return c != nil && c.Failure != nil
}

// TaskQueue returns the HeaderTaskQueue header value and whether it was present.
func (c *Command) TaskQueue() (string, bool) {
	if c == nil || c.Header == nil {
		return "", false
	}
	tq, ok := c.Header[HeaderTaskQueue]
	return tq, ok
}
