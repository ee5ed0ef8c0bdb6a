package engine

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// jsonCodec marshals plain Go structs as JSON.
//
// Connect's built-in JSON codec only accepts protobuf messages; the
// engine messages are plain structs, so both client and test handlers
// register this codec under the "json" name.
type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

// Codec returns the JSON codec option shared by clients and handlers.
func Codec() connect.Option {
	return connect.WithCodec(jsonCodec{})
}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal %T: %w", msg, err)
	}
	return nil
}
