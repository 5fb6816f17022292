// Package transport adapts the registry façade (internal/registry) onto
// a real google.golang.org/grpc server. Per spec.md section 1 the wire
// envelopes are an external collaborator, so instead of generating real
// protobuf descriptors with protoc (a toolchain step we cannot run here,
// and cannot safely fake by hand — see DESIGN.md) the service messages
// are the plain structs in the proto package, carried over the wire with
// a small JSON encoding.Codec registered under the content-subtype
// "json". grpc-go supports arbitrary non-protobuf codecs this way; both
// client and server in this repository agree to use it via
// grpc.CallContentSubtype("json").
package transport

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName is the content-subtype both client and server must agree on.
const CodecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return CodecName }

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("transport: marshal: %w", err)
	}
	return b, nil
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("transport: unmarshal: %w", err)
	}
	return nil
}
