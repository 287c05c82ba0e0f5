package codec

import (
	"fmt"

	commonpb "go.temporal.io/api/common/v1"
	failurepb "go.temporal.io/api/failure/v1"

	"github.com/kozlice/rrworker-go/command"
)

// wireCommand is the codec-agnostic command wire format from the external
// interfaces spec: every command either carries Command (a request) or
// carries Payloads/Failure referencing a prior id (a response).
//
// Both the JSON and protobuf codecs marshal through this shape so that
// decode(encode(x)) round-trips identically regardless of which codec
// produced the bytes.
type wireCommand struct {
	ID       uint64             `json:"id"`
	Command  string             `json:"command,omitempty"`
	Options  map[string]any     `json:"options,omitempty"`
	Payloads []*commonpb.Payload `json:"payloads,omitempty"`
	Header   map[string]string  `json:"header,omitempty"`
	Failure  *failurepb.Failure `json:"failure,omitempty"`
}

func toWire(cmd *command.Command) (*wireCommand, error) {
	if cmd == nil {
		return nil, fmt.Errorf("codec: nil command")
	}
	return &wireCommand{
		ID:       cmd.ID,
		Command:  cmd.Name,
		Options:  cmd.Options,
		Payloads: cmd.Payloads,
		Header:   cmd.Header,
		Failure:  cmd.Failure,
	}, nil
}

func fromWire(w *wireCommand) (*command.Command, error) {
	if w == nil {
		return nil, fmt.Errorf("codec: nil wire command")
	}
	return &command.Command{
		ID:       w.ID,
		Name:     w.Command,
		Options:  w.Options,
		Payloads: w.Payloads,
		Header:   w.Header,
		Failure:  w.Failure,
	}, nil
}

func toWireBatch(cmds []*command.Command) ([]*wireCommand, error) {
	out := make([]*wireCommand, 0, len(cmds))
	for _, c := range cmds {
		w, err := toWire(c)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func fromWireBatch(wire []*wireCommand) ([]*command.Command, error) {
	out := make([]*command.Command, 0, len(wire))
	for _, w := range wire {
		c, err := fromWire(w)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
