// Newline-delimited JSON encoding of log records
package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/valyala/fastjson"
)

var parserPool fastjson.ParserPool

// Wire shape used for encoding. Absent optional fields are omitted.
type wireRecord struct {
	Level     uint8           `json:"level"`
	Timestamp int64           `json:"timestamp"`
	Name      string          `json:"name,omitempty"`
	ContextID string          `json:"context_id,omitempty"`
	Origin    json.RawMessage `json:"origin,omitempty"`
	Message   string          `json:"message"`
}

type wireOrigin struct {
	OriginID    *uuid.UUID `json:"origin_id,omitempty"`
	Hostname    string     `json:"hostname,omitempty"`
	ProcessName string     `json:"process_name,omitempty"`
	ProcessID   *uint32    `json:"process_id,omitempty"`
	ThreadName  string     `json:"thread_name,omitempty"`
	ThreadID    *uint32    `json:"thread_id,omitempty"`
}

// Parses one self-contained line into a record.
// Unknown fields are ignored, optional fields default to absent.
func DecodeLine(line []byte) (record Record, err error) {
	// Parser passes raw bytes through unchecked
	if !utf8.Valid(line) {
		err = malformed("invalid UTF-8", nil)
		return
	}

	parser := parserPool.Get()
	defer parserPool.Put(parser)

	value, err := parser.ParseBytes(line)
	if err != nil {
		err = malformed("invalid JSON", err)
		return
	}

	object, err := value.Object()
	if err != nil {
		err = malformed("expected a JSON object", nil)
		return
	}

	var decoded Record

	levelValue := object.Get(fieldLevel)
	if levelValue == nil {
		err = malformed("missing level", nil)
		return
	}
	ordinal, err := levelValue.Uint()
	if err != nil || ordinal > math.MaxUint8 {
		err = malformed(fmt.Sprintf("level must be an integer in 0..%d", math.MaxUint8), nil)
		return
	}
	decoded.Level = Level(ordinal)

	timestampValue := object.Get(fieldTimestamp)
	if timestampValue == nil {
		err = malformed("missing timestamp", nil)
		return
	}
	micros, err := timestampValue.Int64()
	if err != nil {
		err = malformed("timestamp must be integer microseconds", err)
		return
	}
	decoded.Timestamp = time.UnixMicro(micros).UTC()

	messageValue := object.Get(fieldMessage)
	if messageValue == nil {
		err = malformed("missing message", nil)
		return
	}
	message, err := messageValue.StringBytes()
	if err != nil {
		err = malformed("message must be a string", err)
		return
	}
	decoded.Message = string(message)

	decoded.Name, err = optionalString(object, fieldName)
	if err != nil {
		return
	}
	decoded.ContextID, err = optionalString(object, fieldContextID)
	if err != nil {
		return
	}

	originValue := object.Get(fieldOrigin)
	if originValue != nil && originValue.Type() != fastjson.TypeNull {
		decoded.Origin, err = decodeOriginRef(originValue)
		if err != nil {
			return
		}
	}

	record = decoded
	return
}

// Identifier-shaped values are tried first, then the structured form
func decodeOriginRef(value *fastjson.Value) (ref *OriginRef, err error) {
	switch value.Type() {
	case fastjson.TypeString:
		var id uuid.UUID
		id, err = uuid.ParseBytes(value.GetStringBytes())
		if err != nil {
			err = malformed("origin reference is not a valid identifier", err)
			return
		}
		ref = &OriginRef{Kind: OriginBackRef, ID: id}
	case fastjson.TypeObject:
		object, _ := value.Object()

		var origin Origin
		origin, err = decodeOrigin(object)
		if err != nil {
			return
		}
		ref = &OriginRef{Kind: OriginInline, Origin: origin}
	default:
		err = malformed("origin must be an identifier or an object", nil)
	}
	return
}

func decodeOrigin(object *fastjson.Object) (origin Origin, err error) {
	idText, err := optionalString(object, fieldOriginID)
	if err != nil {
		return
	}
	if idText != "" {
		origin.OriginID, err = uuid.Parse(idText)
		if err != nil {
			err = malformed("origin_id is not a valid identifier", err)
			return
		}
	}

	origin.Hostname, err = optionalString(object, fieldHostname)
	if err != nil {
		return
	}
	origin.ProcessName, err = optionalString(object, fieldProcessName)
	if err != nil {
		return
	}
	origin.ProcessID, err = optionalUint32(object, fieldProcessID)
	if err != nil {
		return
	}
	origin.ThreadName, err = optionalString(object, fieldThreadName)
	if err != nil {
		return
	}
	origin.ThreadID, err = optionalUint32(object, fieldThreadID)
	return
}

func optionalString(object *fastjson.Object, key string) (text string, err error) {
	value := object.Get(key)
	if value == nil || value.Type() == fastjson.TypeNull {
		return
	}

	raw, err := value.StringBytes()
	if err != nil {
		err = malformed(key+" must be a string", err)
		return
	}
	text = string(raw)
	return
}

func optionalUint32(object *fastjson.Object, key string) (number *uint32, err error) {
	value := object.Get(key)
	if value == nil || value.Type() == fastjson.TypeNull {
		return
	}

	raw, err := value.Uint64()
	if err != nil || raw > math.MaxUint32 {
		err = malformed(key+" must be an unsigned 32-bit integer", err)
		return
	}
	converted := uint32(raw)
	number = &converted
	return
}

// Inverse of DecodeLine. The result has no trailing newline.
func EncodeLine(record Record) (line []byte, err error) {
	wire := wireRecord{
		Level:     uint8(record.Level),
		Timestamp: record.Timestamp.UnixMicro(),
		Name:      record.Name,
		ContextID: record.ContextID,
		Message:   record.Message,
	}

	if record.Origin != nil {
		wire.Origin, err = encodeOriginRef(*record.Origin)
		if err != nil {
			return
		}
	}

	line, err = json.Marshal(wire)
	if err != nil {
		err = fmt.Errorf("failed to encode record: %w", err)
	}
	return
}

func encodeOriginRef(ref OriginRef) (raw json.RawMessage, err error) {
	switch ref.Kind {
	case OriginBackRef:
		raw, err = json.Marshal(ref.ID.String())
	case OriginInline:
		wire := wireOrigin{
			Hostname:    ref.Origin.Hostname,
			ProcessName: ref.Origin.ProcessName,
			ProcessID:   ref.Origin.ProcessID,
			ThreadName:  ref.Origin.ThreadName,
			ThreadID:    ref.Origin.ThreadID,
		}
		if ref.Origin.OriginID != uuid.Nil {
			id := ref.Origin.OriginID
			wire.OriginID = &id
		}
		raw, err = json.Marshal(wire)
	default:
		err = fmt.Errorf("unknown origin kind %d", ref.Kind)
	}
	return
}
