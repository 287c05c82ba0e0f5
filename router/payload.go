package router

import (
	"encoding/json"
	"fmt"

	commonpb "go.temporal.io/api/common/v1"
)

// jsonPlainEncoding is the metadata encoding tag used for the GetWorkerInfo
// payload body. GetWorkerInfo is a factory-scoped introspection response
// rather than user workflow data, so it is encoded directly as JSON rather
// than routed through the pluggable DataConverter.
var jsonPlainEncoding = []byte("json/plain")

func encodeQueueInfos(infos []queueInfo) ([]*commonpb.Payload, error) {
	data, err := json.Marshal(infos)
	if err != nil {
		return nil, fmt.Errorf("router: encode GetWorkerInfo response: %w", err)
	}
	return []*commonpb.Payload{{
		Metadata: map[string][]byte{"encoding": jsonPlainEncoding},
		Data:     data,
	}}, nil
}
