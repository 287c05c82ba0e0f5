package worker

import (
	"encoding/json"
	"fmt"
	"reflect"

	commonpb "go.temporal.io/api/common/v1"
	"go.temporal.io/sdk/converter"

	"github.com/kozlice/rrworker-go/registry"
)

// decodeInput converts the wire payloads of a request into the handler's
// declared input type, using the worker's DataConverter.
func decodeInput(conv converter.DataConverter, handler registry.Handler, payloads []*commonpb.Payload) (any, error) {
	ptr := reflect.New(handler.In)
	if len(payloads) > 0 {
		if err := conv.FromPayloads(&commonpb.Payloads{Payloads: payloads}, ptr.Interface()); err != nil {
			return nil, fmt.Errorf("worker: decode input: %w", err)
		}
	}
	return ptr.Elem().Interface(), nil
}

// decodeAny decodes a single wire payload into a generic interface{} value,
// used for signal arguments and query arguments whose shape is not fixed by
// a registered handler's input type.
func decodeAny(conv converter.DataConverter, payloads []*commonpb.Payload) (any, error) {
	if len(payloads) == 0 {
		return nil, nil
	}
	var v any
	if err := conv.FromPayloads(&commonpb.Payloads{Payloads: payloads}, &v); err != nil {
		return nil, fmt.Errorf("worker: decode args: %w", err)
	}
	return v, nil
}

// encodeOutput converts a handler's return value into wire payloads.
func encodeOutput(conv converter.DataConverter, output any) ([]*commonpb.Payload, error) {
	payloads, err := conv.ToPayloads(output)
	if err != nil {
		return nil, fmt.Errorf("worker: encode output: %w", err)
	}
	if payloads == nil {
		return nil, nil
	}
	return payloads.GetPayloads(), nil
}

// ackPayload builds a protocol-level acknowledgement payload (e.g. the
// "Started" response to StartWorkflow). It is encoded directly as JSON
// rather than through the DataConverter, since it is core protocol
// metadata, not user workflow data.
func ackPayload(status, workflowID string) []*commonpb.Payload {
	body, _ := json.Marshal(map[string]string{"status": status, "workflowId": workflowID})
	return []*commonpb.Payload{{
		Metadata: map[string][]byte{"encoding": []byte("json/plain")},
		Data:     body,
	}}
}
