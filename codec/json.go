package codec

import (
	"encoding/json"
	"fmt"

	"github.com/kozlice/rrworker-go/command"
)

// jsonCodec encodes batches using encoding/json. Output is deterministic
// because encoding/json always emits map keys (Header, Options) in sorted
// order and preserves struct field declaration order for the rest.
type jsonCodec struct{}

// NewJSONCodec returns the default Codec: plain JSON framing of a command
// batch.
func NewJSONCodec() Codec {
	return jsonCodec{}
}

func (jsonCodec) Decode(data []byte) ([]*command.Command, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var wire []*wireCommand
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("codec: json decode: %w", err)
	}
	return fromWireBatch(wire)
}

func (jsonCodec) Encode(cmds []*command.Command) ([]byte, error) {
	wire, err := toWireBatch(cmds)
	if err != nil {
		return nil, fmt.Errorf("codec: json encode: %w", err)
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("codec: json encode: %w", err)
	}
	return data, nil
}
