package binding

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/fxamacker/cbor/v2"

	"github.com/nerrad567/gray-logic-adapter/internal/entity"
)

// PropertyEncoder turns a property snapshot into an outbound payload.
type PropertyEncoder func(p entity.Property) ([]byte, error)

// EventEncoder turns an event notification into an outbound payload.
type EventEncoder func(n entity.EventNotification) ([]byte, error)

// ActionDecoder turns an inbound payload into an action body. The concrete
// body type is fixed when the decoder is constructed (see DecodeAction).
type ActionDecoder func(payload []byte) (any, error)

// cborEnc and cborDec are shared by every CBOR codec.
var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error

	cborEnc, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("binding: creating CBOR encoder mode: %v", err))
	}

	cborDec, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("binding: creating CBOR decoder mode: %v", err))
	}
}

// =============================================================================
// Property encoders
// =============================================================================

// PropertyValue builds a PropertyEncoder for properties whose value has type T.
// A snapshot carrying any other type fails with ErrValueType.
func PropertyValue[T any](encode func(T) ([]byte, error)) PropertyEncoder {
	return func(p entity.Property) ([]byte, error) {
		v, ok := p.Value.(T)
		if !ok {
			var zero T
			return nil, fmt.Errorf("%w: property %q holds %T, want %T", ErrValueType, p.Key, p.Value, zero)
		}
		return encode(v)
	}
}

// JSONValue encodes the property value as JSON.
func JSONValue() PropertyEncoder {
	return func(p entity.Property) ([]byte, error) {
		return json.Marshal(p.Value)
	}
}

// CBORValue encodes the property value as canonical CBOR.
func CBORValue() PropertyEncoder {
	return func(p entity.Property) ([]byte, error) {
		return cborEnc.Marshal(p.Value)
	}
}

// TextValue encodes the property value with its default text formatting.
func TextValue() PropertyEncoder {
	return func(p entity.Property) ([]byte, error) {
		return []byte(fmt.Sprint(p.Value)), nil
	}
}

// TruncatedInt encodes a numeric property as a decimal integer, dropping any
// fractional part (42.7 becomes "42", -1.5 becomes "-1").
func TruncatedInt() PropertyEncoder {
	return func(p entity.Property) ([]byte, error) {
		var n int64
		switch v := p.Value.(type) {
		case float64:
			t, err := truncateFloat(p.Key, v)
			if err != nil {
				return nil, err
			}
			n = t
		case float32:
			t, err := truncateFloat(p.Key, float64(v))
			if err != nil {
				return nil, err
			}
			n = t
		case int:
			n = int64(v)
		case int8:
			n = int64(v)
		case int16:
			n = int64(v)
		case int32:
			n = int64(v)
		case int64:
			n = v
		case uint:
			if uint64(v) > math.MaxInt64 {
				return nil, fmt.Errorf("%w: property %q overflows int64", ErrValueType, p.Key)
			}
			n = int64(v)
		case uint8:
			n = int64(v)
		case uint16:
			n = int64(v)
		case uint32:
			n = int64(v)
		case uint64:
			if v > math.MaxInt64 {
				return nil, fmt.Errorf("%w: property %q overflows int64", ErrValueType, p.Key)
			}
			n = int64(v)
		default:
			return nil, fmt.Errorf("%w: property %q holds %T, want a number", ErrValueType, p.Key, p.Value)
		}
		return []byte(strconv.FormatInt(n, 10)), nil
	}
}

// int64 bounds as exact float64 values: -2^63 and 2^63.
const (
	minInt64Float = -(1 << 63)
	maxInt64Float = 1 << 63
)

// truncateFloat drops the fractional part of v, rejecting values with no
// int64 representation.
func truncateFloat(key string, v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: property %q is not finite", ErrValueType, key)
	}
	if v < minInt64Float || v >= maxInt64Float {
		return 0, fmt.Errorf("%w: property %q overflows int64", ErrValueType, key)
	}
	return int64(v), nil
}

// =============================================================================
// Event encoders
// =============================================================================

// JSONEvent encodes the whole notification (key, data, timestamp) as JSON.
func JSONEvent() EventEncoder {
	return func(n entity.EventNotification) ([]byte, error) {
		return json.Marshal(n)
	}
}

// CBOREvent encodes the whole notification as canonical CBOR.
func CBOREvent() EventEncoder {
	return func(n entity.EventNotification) ([]byte, error) {
		return cborEnc.Marshal(n)
	}
}

// TextEvent encodes only the notification data with default text formatting.
func TextEvent() EventEncoder {
	return func(n entity.EventNotification) ([]byte, error) {
		if n.Data == nil {
			return []byte{}, nil
		}
		return []byte(fmt.Sprint(n.Data)), nil
	}
}

// =============================================================================
// Action decoders
// =============================================================================

// DecodeAction builds an ActionDecoder whose bodies always have type T.
func DecodeAction[T any](decode func(payload []byte) (T, error)) ActionDecoder {
	return func(payload []byte) (any, error) {
		v, err := decode(payload)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

// JSONAction decodes the payload as JSON into a T.
func JSONAction[T any]() ActionDecoder {
	return DecodeAction(func(payload []byte) (T, error) {
		var v T
		if err := json.Unmarshal(payload, &v); err != nil {
			return v, fmt.Errorf("decoding json: %w", err)
		}
		return v, nil
	})
}

// CBORAction decodes the payload as CBOR into a T.
func CBORAction[T any]() ActionDecoder {
	return DecodeAction(func(payload []byte) (T, error) {
		var v T
		if err := cborDec.Unmarshal(payload, &v); err != nil {
			return v, fmt.Errorf("decoding cbor: %w", err)
		}
		return v, nil
	})
}

// TextAction passes the payload through as a string body.
func TextAction() ActionDecoder {
	return DecodeAction(func(payload []byte) (string, error) {
		return string(payload), nil
	})
}

// ConstantAction ignores the payload and always yields value.
// Useful for trigger topics such as "switch-off" where the message itself
// is the command.
func ConstantAction[T any](value T) ActionDecoder {
	return DecodeAction(func([]byte) (T, error) {
		return value, nil
	})
}
