package library

import (
	"bytes"
	"encoding/json"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

var (
	// Records are rendered with proto field names and zero values included.
	recordJSON = protojson.MarshalOptions{UseProtoNames: true, EmitUnpopulated: true}

	payloadJSON = protojson.UnmarshalOptions{DiscardUnknown: true}

	fieldJSON = jsoniter.ConfigCompatibleWithStandardLibrary
)

// Decode builds a message of the given type from a JSON payload.
// Fields the contract does not know are dropped.
func Decode(md protoreflect.MessageDescriptor, payload []byte) (*dynamicpb.Message, error) {
	msg := dynamicpb.NewMessage(md)
	if len(payload) == 0 {
		return msg, nil
	}
	if err := payloadJSON.Unmarshal(payload, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Fields encodes every populated top-level field of msg as JSON, keyed by
// proto field name. Empty repeated fields are not populated and therefore
// absent from the result.
func Fields(msg protoreflect.Message) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage)
	var rangeErr error
	msg.Range(func(fd protoreflect.FieldDescriptor, v protoreflect.Value) bool {
		raw, err := encodeField(fd, v)
		if err != nil {
			rangeErr = fmt.Errorf("encode field %s: %w", fd.Name(), err)
			return false
		}
		out[string(fd.Name())] = raw
		return true
	})
	if rangeErr != nil {
		return nil, rangeErr
	}
	return out, nil
}

func encodeField(fd protoreflect.FieldDescriptor, v protoreflect.Value) (json.RawMessage, error) {
	if !fd.IsList() {
		return encodeValue(fd, v)
	}
	list := v.List()
	items := make([]json.RawMessage, list.Len())
	for i := range items {
		raw, err := encodeValue(fd, list.Get(i))
		if err != nil {
			return nil, err
		}
		items[i] = raw
	}
	return fieldJSON.Marshal(items)
}

func encodeValue(fd protoreflect.FieldDescriptor, v protoreflect.Value) (json.RawMessage, error) {
	if fd.Kind() == protoreflect.MessageKind {
		raw, err := recordJSON.Marshal(v.Message().Interface())
		if err != nil {
			return nil, err
		}
		// protojson randomizes whitespace between tokens. Clients get
		// the compact form.
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return fieldJSON.Marshal(v.Interface())
}
