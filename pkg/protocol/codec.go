package protocol

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	ErrUnknownKind    = errors.New("unknown message kind")
	ErrWrongDirection = errors.New("message sent in the wrong direction")
)

// Envelope is the frame every message travels in.
type Envelope struct {
	Kind Kind            `cbor:"1,keyasint"`
	Data cbor.RawMessage `cbor:"2,keyasint"`
}

func Encode(message Message) ([]byte, error) {
	data, err := cbor.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", NameOf(message), err)
	}

	return cbor.Marshal(Envelope{
		Kind: message.Kind(),
		Data: data,
	})
}

func Decode(frame []byte) (Message, error) {
	var envelope Envelope
	if err := cbor.Unmarshal(frame, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}

	e, ok := catalog[envelope.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, envelope.Kind)
	}

	message, err := e.decode(envelope.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", e.Name, err)
	}

	return message, nil
}

// DecodeFromClient only accepts kinds a client is allowed to send.
func DecodeFromClient(frame []byte) (Message, error) {
	message, err := Decode(frame)
	if err != nil {
		return nil, err
	}

	if catalog[message.Kind()].Direction == ServerToClient {
		return nil, fmt.Errorf("%w: %s", ErrWrongDirection, NameOf(message))
	}

	return message, nil
}
