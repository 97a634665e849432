// Package connect provides the Connect RPC service implementation and the
// matching client.
package connect

import "encoding/json"

// jsonCodec is a connect.Codec over plain Go structs. Registering it under
// the name "json" replaces the default protojson codec, which lets the
// service run without generated protobuf types.
type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(m any) ([]byte, error) {
	return json.Marshal(m)
}

func (jsonCodec) Unmarshal(data []byte, m any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, m)
}
