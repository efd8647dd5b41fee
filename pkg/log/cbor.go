package log

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Trace files are a plain sequence of CBOR maps, one per Event, with small
// unsigned integer keys:
//
//	Event                        InstructionEvent
//	 1  timestamp (RFC 3339 ns)   1  ids
//	 2  manager id                2  ids truncated
//	 3  instruction id            3  impacted listeners
//	 4  queue sequence            4  notified listeners
//	 5  kind                      5  paused listeners
//	 6  stage                     6  global listeners
//	10  instruction payload       7  dropped instructions
//	11  gc payload                8  processing time (ns)
//	12  error payload
//
//	GCEvent                      ErrorEventData
//	 1  trigger                   1  reason
//	 2  buckets before            2  model id
//	 3  buckets after             3  message
//	 4  slots pruned
//	 5  pending records dropped
//
// Zero-valued optional fields are omitted. Keys are only ever added.

// ErrInvalidEvent is returned for events whose kind, stage and payload do
// not fit together.
var ErrInvalidEvent = errors.New("invalid trace event")

var (
	logEncMode cbor.EncMode
	logDecMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	logEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create trace CBOR encoder mode: %v", err))
	}

	// Older files may carry keys this build does not know.
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	logDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create trace CBOR decoder mode: %v", err))
	}
}

// CheckEvent reports whether event is well formed: kind and stage are
// known, at most one payload is set, a GC payload only comes with a
// collected GC event and an error payload only with a failed stage.
func CheckEvent(event Event) error {
	if event.Kind > KindGC {
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidEvent, event.Kind)
	}
	if event.Stage > StageCollected {
		return fmt.Errorf("%w: unknown stage %d", ErrInvalidEvent, event.Stage)
	}

	payloads := 0
	if event.Instruction != nil {
		payloads++
	}
	if event.GC != nil {
		payloads++
		if event.Kind != KindGC || event.Stage != StageCollected {
			return fmt.Errorf("%w: gc payload on %s/%s", ErrInvalidEvent, event.Kind, event.Stage)
		}
	}
	if event.Error != nil {
		payloads++
		if event.Stage != StageFailed {
			return fmt.Errorf("%w: error payload on stage %s", ErrInvalidEvent, event.Stage)
		}
	}
	if payloads > 1 {
		return fmt.Errorf("%w: %d payloads", ErrInvalidEvent, payloads)
	}
	return nil
}

// EncodeEvent checks and encodes an Event.
func EncodeEvent(event Event) ([]byte, error) {
	if err := CheckEvent(event); err != nil {
		return nil, err
	}
	return logEncMode.Marshal(event)
}

// DecodeEvent decodes and checks one Event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := logDecMode.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	if err := CheckEvent(event); err != nil {
		return Event{}, err
	}
	return event, nil
}

// NewEncoder creates a CBOR encoder for trace events that writes to w.
// It does not check events; FileLogger does that before encoding.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return logEncMode.NewEncoder(w)
}

// NewDecoder creates a CBOR decoder for trace events that reads from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return logDecMode.NewDecoder(r)
}
