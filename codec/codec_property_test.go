package codec

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	commonpb "go.temporal.io/api/common/v1"

	"github.com/kozlice/rrworker-go/command"
)

// commandCase is a round-trippable projection of a Command: every field is
// restricted to a type that survives both the JSON codec and the
// protobuf-via-structpb bridge unchanged. Options is kept string-valued
// because structpb.Struct only carries JSON-ish values, so a generic `any`
// number would otherwise come back as float64 rather than its original type.
type commandCase struct {
	id           uint64
	name         string
	hasTaskQueue bool
	taskQueue    string
	options      map[string]string
	data         string
}

func (tc commandCase) toCommand() *command.Command {
	payloads := []*commonpb.Payload{
		{Metadata: map[string][]byte{"encoding": []byte("json/plain")}, Data: []byte(tc.data)},
	}

	if tc.name == "" {
		return command.NewResponse(tc.id, payloads)
	}

	var header map[string]string
	if tc.hasTaskQueue {
		header = map[string]string{command.HeaderTaskQueue: tc.taskQueue}
	}
	options := make(map[string]any, len(tc.options))
	for k, v := range tc.options {
		options[k] = v
	}
	return command.NewRequest(tc.id, tc.name, payloads, header, options)
}

// genCommandCase generates an arbitrary valid commandCase.
func genCommandCase() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, 1<<30),
		gen.OneGenOf(gen.Const(""), gen.Identifier()),
		gen.Bool(),
		gen.Identifier(),
		gen.MapOf(gen.Identifier(), gen.AlphaString()),
		gen.AlphaString(),
	).Map(func(vals []any) commandCase {
		return commandCase{
			id:           uint64(vals[0].(int)),
			name:         vals[1].(string),
			hasTaskQueue: vals[2].(bool),
			taskQueue:    vals[3].(string),
			options:      vals[4].(map[string]string),
			data:         vals[5].(string),
		}
	})
}

// genBatch generates an arbitrary valid batch of commands, the B in spec.md
// §8's "for any decode/encode pair and any valid batch B" property.
func genBatch() gopter.Gen {
	return gen.SliceOf(genCommandCase()).Map(func(cases []commandCase) []*command.Command {
		batch := make([]*command.Command, len(cases))
		for i, c := range cases {
			batch[i] = c.toCommand()
		}
		return batch
	})
}

// commandsEqual compares two commands on every field a codec round trip is
// expected to preserve.
func commandsEqual(a, b *command.Command) bool {
	if a.ID != b.ID || a.Name != b.Name {
		return false
	}
	if len(a.Header) != len(b.Header) {
		return false
	}
	for k, v := range a.Header {
		if b.Header[k] != v {
			return false
		}
	}
	if len(a.Options) != len(b.Options) {
		return false
	}
	for k, v := range a.Options {
		if b.Options[k] != v {
			return false
		}
	}
	if len(a.Payloads) != len(b.Payloads) {
		return false
	}
	for i := range a.Payloads {
		if string(a.Payloads[i].GetData()) != string(b.Payloads[i].GetData()) {
			return false
		}
	}
	return true
}

func batchesEqual(a, b []*command.Command) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !commandsEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// TestJSONCodecRoundTripProperty verifies spec.md §8's decode/encode
// invariant for the JSON codec: for any valid batch B, decode(encode(B))
// reproduces every command's id, name, header, options and payload data.
func TestJSONCodecRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("decode(encode(batch)) == batch for the JSON codec", prop.ForAll(
		func(batch []*command.Command) bool {
			c := NewJSONCodec()
			data, err := c.Encode(batch)
			if err != nil {
				return false
			}
			decoded, err := c.Decode(data)
			if err != nil {
				return false
			}
			return batchesEqual(batch, decoded)
		},
		genBatch(),
	))

	properties.TestingRun(t)
}

// TestJSONCodecDeterministicProperty verifies that encoding the same batch
// twice with the JSON codec always produces byte-identical output.
func TestJSONCodecDeterministicProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("encode(batch) is byte-identical across calls for the JSON codec", prop.ForAll(
		func(batch []*command.Command) bool {
			c := NewJSONCodec()
			a, err := c.Encode(batch)
			if err != nil {
				return false
			}
			b, err := c.Encode(batch)
			if err != nil {
				return false
			}
			return string(a) == string(b)
		},
		genBatch(),
	))

	properties.TestingRun(t)
}

// TestProtobufCodecRoundTripProperty is TestJSONCodecRoundTripProperty's
// counterpart for the protobuf codec.
func TestProtobufCodecRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("decode(encode(batch)) == batch for the protobuf codec", prop.ForAll(
		func(batch []*command.Command) bool {
			c := NewProtobufCodec()
			data, err := c.Encode(batch)
			if err != nil {
				return false
			}
			decoded, err := c.Decode(data)
			if err != nil {
				return false
			}
			return batchesEqual(batch, decoded)
		},
		genBatch(),
	))

	properties.TestingRun(t)
}

// TestProtobufCodecDeterministicProperty verifies that encoding the same
// batch twice with the protobuf codec always produces byte-identical
// output, despite Struct.Fields being backed by an unordered Go map.
func TestProtobufCodecDeterministicProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("encode(batch) is byte-identical across calls for the protobuf codec", prop.ForAll(
		func(batch []*command.Command) bool {
			c := NewProtobufCodec()
			a, err := c.Encode(batch)
			if err != nil {
				return false
			}
			b, err := c.Encode(batch)
			if err != nil {
				return false
			}
			return string(a) == string(b)
		},
		genBatch(),
	))

	properties.TestingRun(t)
}
