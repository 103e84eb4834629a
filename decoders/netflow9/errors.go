package netflow9

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a decode failure.
type ErrorKind int

const (
	// ErrTruncated means fewer bytes remained than a structure declared.
	ErrTruncated ErrorKind = iota
	// ErrInvalidHeader means the packet header failed version/count validation.
	ErrInvalidHeader
	// ErrMalformedFlowSet means a FlowSet declared length < 4.
	ErrMalformedFlowSet
	// ErrUnknownTemplate means a Data FlowSet referenced a template not in the cache.
	ErrUnknownTemplate
	// ErrInvalidTemplate means a cached template has a zero record length.
	ErrInvalidTemplate
	// ErrFieldLength means a fixed-width field helper was handed a mis-sized slice.
	ErrFieldLength
)

func (k ErrorKind) String() string {
	switch k {
	case ErrTruncated:
		return "Truncated"
	case ErrInvalidHeader:
		return "InvalidHeader"
	case ErrMalformedFlowSet:
		return "MalformedFlowSet"
	case ErrUnknownTemplate:
		return "UnknownTemplate"
	case ErrInvalidTemplate:
		return "InvalidTemplate"
	case ErrFieldLength:
		return "FieldLength"
	default:
		return "Unknown"
	}
}

// DecodeError is the structured error value the decoder returns or reports
// as a diagnostic. It never carries a bare string: callers can switch on
// Kind and inspect the exporter/template identifying fields without
// re-parsing an error message.
type DecodeError struct {
	Kind       ErrorKind
	SourceID   uint32
	TemplateID uint16
	Offset     int
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("netflow9: %s [source_id:%d template_id:%d offset:%d]: %s",
		e.Kind, e.SourceID, e.TemplateID, e.Offset, e.Err.Error())
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func newDecodeError(kind ErrorKind, sourceID uint32, templateID uint16, offset int, msg string) *DecodeError {
	return &DecodeError{
		Kind:       kind,
		SourceID:   sourceID,
		TemplateID: templateID,
		Offset:     offset,
		Err:        errors.New(msg),
	}
}

// Diagnostic is a non-fatal, recoverable condition observed during decode
// (e.g. UnknownTemplate at cold start). The decoder keeps producing records
// after emitting one; it is the observer sink's job to expose these, not
// the core's.
type Diagnostic struct {
	Kind       ErrorKind
	SourceID   uint32
	TemplateID uint16
	Offset     int
	Message    string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s [source_id:%d template_id:%d offset:%d]: %s", d.Kind, d.SourceID, d.TemplateID, d.Offset, d.Message)
}
