package binding

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/nerrad567/gray-logic-adapter/internal/entity"
)

func TestTruncatedInt(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    string
		wantErr bool
	}{
		{name: "positive float", value: 42.7, want: "42"},
		{name: "negative float", value: -1.5, want: "-1"},
		{name: "float32", value: float32(3.9), want: "3"},
		{name: "int", value: 17, want: "17"},
		{name: "int64", value: int64(-9), want: "-9"},
		{name: "uint8", value: uint8(200), want: "200"},
		{name: "string", value: "42", wantErr: true},
		{name: "nil", value: nil, wantErr: true},
		{name: "nan", value: math.NaN(), wantErr: true},
		{name: "inf", value: math.Inf(1), wantErr: true},
		{name: "float above int64", value: 1e19, wantErr: true},
		{name: "float below int64", value: -1e300, wantErr: true},
		{name: "float at 2^63", value: float64(1 << 63), wantErr: true},
		{name: "float at -2^63", value: float64(-(1 << 63)), want: "-9223372036854775808"},
		{name: "float32 nan", value: float32(math.NaN()), wantErr: true},
		{name: "float32 inf", value: float32(math.Inf(1)), wantErr: true},
		{name: "float32 above int64", value: float32(1e20), wantErr: true},
		{name: "int8", value: int8(-8), want: "-8"},
		{name: "int16", value: int16(3), want: "3"},
		{name: "uint", value: uint(12), want: "12"},
		{name: "uint64", value: uint64(7), want: "7"},
		{name: "uint64 max int64", value: uint64(math.MaxInt64), want: "9223372036854775807"},
		{name: "uint64 overflow", value: uint64(math.MaxUint64), wantErr: true},
	}

	enc := TruncatedInt()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := enc(entity.Property{Key: "energy", Value: tt.value})
			if tt.wantErr {
				if !errors.Is(err, ErrValueType) {
					t.Errorf("TruncatedInt() error = %v, want ErrValueType", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("TruncatedInt() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("TruncatedInt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPropertyValue_TypeMismatch(t *testing.T) {
	enc := PropertyValue(func(v bool) ([]byte, error) {
		if v {
			return []byte("ON"), nil
		}
		return []byte("OFF"), nil
	})

	got, err := enc(entity.Property{Key: "power", Value: true})
	if err != nil || string(got) != "ON" {
		t.Errorf("PropertyValue(true) = %q, %v; want ON, nil", got, err)
	}

	if _, err := enc(entity.Property{Key: "power", Value: 1}); !errors.Is(err, ErrValueType) {
		t.Errorf("PropertyValue(1) error = %v, want ErrValueType", err)
	}
}

func TestJSONValue(t *testing.T) {
	got, err := JSONValue()(entity.Property{Key: "mode", Value: map[string]any{"level": 3}})
	if err != nil {
		t.Fatalf("JSONValue() error = %v", err)
	}
	if string(got) != `{"level":3}` {
		t.Errorf("JSONValue() = %s", got)
	}
}

func TestTextValue(t *testing.T) {
	got, err := TextValue()(entity.Property{Key: "on", Value: true})
	if err != nil || string(got) != "true" {
		t.Errorf("TextValue() = %q, %v", got, err)
	}
}

func TestCBORValue(t *testing.T) {
	got, err := CBORValue()(entity.Property{Key: "temp", Value: 21.5})
	if err != nil {
		t.Fatalf("CBORValue() error = %v", err)
	}
	var back float64
	if err := cbor.Unmarshal(got, &back); err != nil {
		t.Fatalf("cbor.Unmarshal() error = %v", err)
	}
	if back != 21.5 {
		t.Errorf("decoded %v, want 21.5", back)
	}
}

func TestJSONEvent(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	got, err := JSONEvent()(entity.EventNotification{Key: "overheated", Data: 91.0, Timestamp: ts})
	if err != nil {
		t.Fatalf("JSONEvent() error = %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(got, &m); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if m["key"] != "overheated" || m["data"] != 91.0 || m["timestamp"] != "2026-01-02T03:04:05Z" {
		t.Errorf("JSONEvent() = %s", got)
	}
}

func TestTextEvent_NilData(t *testing.T) {
	got, err := TextEvent()(entity.EventNotification{Key: "ping"})
	if err != nil || len(got) != 0 {
		t.Errorf("TextEvent(nil) = %q, %v; want empty", got, err)
	}
}

func TestJSONAction(t *testing.T) {
	type setpoint struct {
		Target float64 `json:"target"`
	}
	dec := JSONAction[setpoint]()

	body, err := dec([]byte(`{"target":21.5}`))
	if err != nil {
		t.Fatalf("JSONAction() error = %v", err)
	}
	sp, ok := body.(setpoint)
	if !ok || sp.Target != 21.5 {
		t.Errorf("JSONAction() body = %#v", body)
	}

	if _, err := dec([]byte(`not json`)); err == nil {
		t.Error("JSONAction() expected error for malformed payload")
	}
}

func TestCBORAction(t *testing.T) {
	payload, err := cborEnc.Marshal(map[string]any{"level": 40})
	if err != nil {
		t.Fatal(err)
	}

	body, err := CBORAction[map[string]int]()(payload)
	if err != nil {
		t.Fatalf("CBORAction() error = %v", err)
	}
	if m, ok := body.(map[string]int); !ok || m["level"] != 40 {
		t.Errorf("CBORAction() body = %#v", body)
	}

	if _, err := CBORAction[map[string]int]()([]byte{0xff, 0x00}); err == nil {
		t.Error("CBORAction() expected error for malformed payload")
	}
}

func TestTextAction(t *testing.T) {
	body, err := TextAction()([]byte("open"))
	if err != nil || body != "open" {
		t.Errorf("TextAction() = %v, %v", body, err)
	}
}
