// Package codec maps door records to and from their protobuf wire form.
//
// The schema is fixed and tiny, so the messages are encoded by hand with
// protowire instead of generated code:
//
//	DoorState:   field 1 status (enum: MOVING=0, CLOSED=1, OPEN=2)
//	             field 2 sessions (repeated string)
//	DoorRequest: field 1 mode (enum: OPEN=0, RELEASE=1)
//	             field 2 session (string)
//
// Encoding follows proto3 semantics: default values are omitted. Decoding
// skips unknown fields for forward compatibility but rejects unknown enum
// values and malformed input.
package codec

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/groblegark/doord/internal/model"
)

// Field numbers, shared by both messages.
const (
	fieldEnum   = 1 // status / mode
	fieldString = 2 // sessions / session
)

// EncodingError wraps a failure to encode a record.
type EncodingError struct {
	Reason string
}

func (e *EncodingError) Error() string {
	return "encode: " + e.Reason
}

// DecodingError wraps a failure to decode a payload.
type DecodingError struct {
	Reason string
	Err    error
}

func (e *DecodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode: %s: %v", e.Reason, e.Err)
	}
	return "decode: " + e.Reason
}

func (e *DecodingError) Unwrap() error { return e.Err }

// EncodeState serializes a door state snapshot.
func EncodeState(s *model.DoorState) ([]byte, error) {
	if !s.Status.IsValid() {
		return nil, &EncodingError{Reason: fmt.Sprintf("unrepresentable status %d", s.Status)}
	}
	var b []byte
	if s.Status != model.StatusMoving {
		b = protowire.AppendTag(b, fieldEnum, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(s.Status))
	}
	for _, sess := range s.Sessions {
		b = protowire.AppendTag(b, fieldString, protowire.BytesType)
		b = protowire.AppendString(b, sess)
	}
	return b, nil
}

// DecodeState parses a door state snapshot from its wire form.
func DecodeState(data []byte) (*model.DoorState, error) {
	var st model.DoorState
	err := walkFields(data,
		func(v uint64) error {
			status := model.DoorStatus(v)
			if !status.IsValid() {
				return &DecodingError{Reason: fmt.Sprintf("unknown status value %d", v)}
			}
			st.Status = status
			return nil
		},
		func(s string) error {
			st.Sessions = append(st.Sessions, s)
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// EncodeRequest serializes a door request.
func EncodeRequest(r *model.DoorRequest) ([]byte, error) {
	if !r.Mode.IsValid() {
		return nil, &EncodingError{Reason: fmt.Sprintf("unrepresentable mode %d", r.Mode)}
	}
	var b []byte
	if r.Mode != model.ModeOpen {
		b = protowire.AppendTag(b, fieldEnum, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(r.Mode))
	}
	if r.Session != "" {
		b = protowire.AppendTag(b, fieldString, protowire.BytesType)
		b = protowire.AppendString(b, r.Session)
	}
	return b, nil
}

// DecodeRequest parses a door request from its wire form.
func DecodeRequest(data []byte) (*model.DoorRequest, error) {
	var req model.DoorRequest
	err := walkFields(data,
		func(v uint64) error {
			mode := model.RequestMode(v)
			if !mode.IsValid() {
				return &DecodingError{Reason: fmt.Sprintf("unknown mode value %d", v)}
			}
			req.Mode = mode
			return nil
		},
		func(s string) error {
			// Last occurrence wins, matching proto merge semantics.
			req.Session = s
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// walkFields iterates the wire stream, dispatching field 1 varints to onEnum
// and field 2 strings to onString. Fields with any other number, and known
// fields carrying an unexpected wire type, are skipped as unknowns.
func walkFields(data []byte, onEnum func(uint64) error, onString func(string) error) error {
	b := data
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return &DecodingError{Reason: "malformed tag", Err: protowire.ParseError(n)}
		}
		b = b[n:]

		switch {
		case num == fieldEnum && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return &DecodingError{Reason: "malformed varint", Err: protowire.ParseError(n)}
			}
			if err := onEnum(v); err != nil {
				return err
			}
			b = b[n:]
		case num == fieldString && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(b)
			if n < 0 {
				return &DecodingError{Reason: "malformed string", Err: protowire.ParseError(n)}
			}
			if err := onString(s); err != nil {
				return err
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return &DecodingError{Reason: fmt.Sprintf("malformed field %d", num), Err: protowire.ParseError(n)}
			}
			b = b[n:]
		}
	}
	return nil
}
