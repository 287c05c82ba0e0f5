package codec

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/kozlice/rrworker-go/command"
)

// protobufCodec encodes a batch as a structpb.ListValue of structpb.Struct
// values, one per command, serialized with google.golang.org/protobuf.
//
// There is no generated message type for Command in this module, so each
// wireCommand is round-tripped through encoding/json into a
// map[string]any and lifted into a structpb.Struct via
// structpb.NewStruct. This still produces genuine protobuf wire bytes:
// structpb.Struct is itself a regular proto.Message, and proto.Marshal
// walks its fields exactly as it would for any generated message.
//
// Deterministic is set on every Marshal call because protobuf map field
// encoding order is unspecified by default; without it, two calls with
// identical input could produce different bytes since Struct.Fields is a
// map[string]*Value.
type protobufCodec struct{}

// NewProtobufCodec returns the Codec selected by RR_CODEC=protobuf.
func NewProtobufCodec() Codec {
	return protobufCodec{}
}

var marshalOpts = proto.MarshalOptions{Deterministic: true}

func (protobufCodec) Decode(data []byte) ([]*command.Command, error) {
	if len(data) == 0 {
		return nil, nil
	}
	list := &structpb.ListValue{}
	if err := proto.Unmarshal(data, list); err != nil {
		return nil, fmt.Errorf("codec: protobuf decode: %w", err)
	}
	wire := make([]*wireCommand, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		raw, err := json.Marshal(v.AsInterface())
		if err != nil {
			return nil, fmt.Errorf("codec: protobuf decode: %w", err)
		}
		w := &wireCommand{}
		if err := json.Unmarshal(raw, w); err != nil {
			return nil, fmt.Errorf("codec: protobuf decode: %w", err)
		}
		wire = append(wire, w)
	}
	return fromWireBatch(wire)
}

func (protobufCodec) Encode(cmds []*command.Command) ([]byte, error) {
	wire, err := toWireBatch(cmds)
	if err != nil {
		return nil, fmt.Errorf("codec: protobuf encode: %w", err)
	}
	values := make([]*structpb.Value, 0, len(wire))
	for _, w := range wire {
		raw, err := json.Marshal(w)
		if err != nil {
			return nil, fmt.Errorf("codec: protobuf encode: %w", err)
		}
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("codec: protobuf encode: %w", err)
		}
		st, err := structpb.NewStruct(m)
		if err != nil {
			return nil, fmt.Errorf("codec: protobuf encode: %w", err)
		}
		values = append(values, structpb.NewStructValue(st))
	}
	list := &structpb.ListValue{Values: values}
	data, err := marshalOpts.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("codec: protobuf encode: %w", err)
	}
	return data, nil
}
