// Package codec implements the two wire framings the worker runtime can
// speak with its host: JSON and protobuf. Both preserve command order and
// produce deterministic output for a given input.
package codec

import (
	"os"

	"github.com/kozlice/rrworker-go/command"
)

// EnvCodec is the environment variable that selects the wire codec.
const EnvCodec = "RR_CODEC"

// Codec encodes and decodes a batch of commands to and from wire bytes.
// decode(encode(batch)) must reproduce batch as a command sequence.
type Codec interface {
	Decode(data []byte) ([]*command.Command, error)
	Encode(cmds []*command.Command) ([]byte, error)
}

// Select returns the Codec named by value: "protobuf" selects the protobuf
// codec, any other value (including empty) selects JSON. This mirrors
// RR_CODEC's semantics exactly: unknown values degrade to the default
// rather than raising an error.
func Select(value string) Codec {
	if value == "protobuf" {
		return NewProtobufCodec()
	}
	return NewJSONCodec()
}

// FromEnv selects a Codec based on the RR_CODEC environment variable.
func FromEnv() Codec {
	return Select(os.Getenv(EnvCodec))
}
