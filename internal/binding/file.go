package binding

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Codec names accepted in binding files.
const (
	CodecJSON     = "json"
	CodecCBOR     = "cbor"
	CodecText     = "text"
	CodecInt      = "int"
	CodecConstant = "constant"
)

// File is the YAML representation of a set of bindings.
//
//	prefix: site-01
//	properties:
//	  - key: energy
//	    topic: dummy/properties/energy
//	    codec: int
//	events:
//	  - key: overheated
//	    suffix: updated
//	    qos: 1
//	    codec: json
//	actions:
//	  - key: switch_off
//	    topic: app/actions/switch-off
//	    codec: constant
//	    value: "OFF"
type File struct {
	// Prefix roots the default topic hierarchy for entries without a topic.
	Prefix     string      `yaml:"prefix"`
	Properties []FileEntry `yaml:"properties"`
	Events     []FileEntry `yaml:"events"`
	Actions    []FileEntry `yaml:"actions"`
}

// FileEntry is one binding in a File.
type FileEntry struct {
	Key string `yaml:"key"`

	// Topic is the explicit broker address. If empty, the address is built
	// with Topics from Prefix, Key and Suffix.
	Topic  string `yaml:"topic"`
	Suffix string `yaml:"suffix"`

	QoS      int    `yaml:"qos"`
	Retained bool   `yaml:"retained"`
	Codec    string `yaml:"codec"`

	// Value is the body produced by the "constant" action codec.
	Value any `yaml:"value"`
}

// LoadFile reads a binding file and builds a Registry from it.
//
// Parameters:
//   - path: Path to the YAML binding file
//
// Returns:
//   - *Registry: Registry holding every binding in the file
//   - error: If the file cannot be read or parsed, or any binding is invalid
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bindings file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing bindings file: %w", err)
	}

	b := NewBuilder()
	if err := f.Apply(b); err != nil {
		return nil, err
	}
	return b.Build()
}

// Apply adds every entry in f to b. Problems across all entries are
// collected and reported together.
func (f *File) Apply(b *Builder) error {
	var errs []string
	topics := Topics{Prefix: f.Prefix}

	for i, e := range f.Properties {
		if err := f.applyProperty(b, topics, e); err != nil {
			errs = append(errs, fmt.Sprintf("properties[%d]: %v", i, err))
		}
	}
	for i, e := range f.Events {
		if err := f.applyEvent(b, topics, e); err != nil {
			errs = append(errs, fmt.Sprintf("events[%d]: %v", i, err))
		}
	}
	for i, e := range f.Actions {
		if err := f.applyAction(b, topics, e); err != nil {
			errs = append(errs, fmt.Sprintf("actions[%d]: %v", i, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(errs, "; "))
	}
	return nil
}

func (f *File) applyProperty(b *Builder, topics Topics, e FileEntry) error {
	qos, err := entryQoS(e)
	if err != nil {
		return err
	}
	address := e.Topic
	if address == "" && e.Suffix != "" {
		suffix := PropertySuffix(e.Suffix)
		if !suffix.Valid() {
			return fmt.Errorf("unknown property suffix %q for %q", e.Suffix, e.Key)
		}
		address = topics.Property(e.Key, suffix)
	}

	var enc PropertyEncoder
	switch e.Codec {
	case CodecJSON, "":
		enc = JSONValue()
	case CodecCBOR:
		enc = CBORValue()
	case CodecText:
		enc = TextValue()
	case CodecInt:
		enc = TruncatedInt()
	default:
		return fmt.Errorf("%w %q for property %q", ErrUnknownCodec, e.Codec, e.Key)
	}
	return b.AddPropertyBinding(e.Key, address, qos, e.Retained, enc)
}

func (f *File) applyEvent(b *Builder, topics Topics, e FileEntry) error {
	qos, err := entryQoS(e)
	if err != nil {
		return err
	}
	address := e.Topic
	if address == "" && e.Suffix != "" {
		suffix := EventSuffix(e.Suffix)
		if !suffix.Valid() {
			return fmt.Errorf("unknown event suffix %q for %q", e.Suffix, e.Key)
		}
		address = topics.Event(e.Key, suffix)
	}

	var enc EventEncoder
	switch e.Codec {
	case CodecJSON, "":
		enc = JSONEvent()
	case CodecCBOR:
		enc = CBOREvent()
	case CodecText:
		enc = TextEvent()
	default:
		return fmt.Errorf("%w %q for event %q", ErrUnknownCodec, e.Codec, e.Key)
	}
	return b.AddEventBinding(e.Key, address, qos, e.Retained, enc)
}

func (f *File) applyAction(b *Builder, topics Topics, e FileEntry) error {
	qos, err := entryQoS(e)
	if err != nil {
		return err
	}
	address := e.Topic
	if address == "" && e.Suffix != "" {
		suffix := ActionSuffix(e.Suffix)
		if !suffix.Valid() {
			return fmt.Errorf("unknown action suffix %q for %q", e.Suffix, e.Key)
		}
		address = topics.Action(e.Key, suffix)
	}

	var dec ActionDecoder
	switch e.Codec {
	case CodecJSON, "":
		dec = JSONAction[any]()
	case CodecCBOR:
		dec = CBORAction[any]()
	case CodecText:
		dec = TextAction()
	case CodecConstant:
		if e.Value == nil {
			return fmt.Errorf("action %q: constant codec requires a value", e.Key)
		}
		dec = ConstantAction(e.Value)
	default:
		return fmt.Errorf("%w %q for action %q", ErrUnknownCodec, e.Codec, e.Key)
	}
	return b.AddActionBinding(e.Key, address, qos, dec)
}

func entryQoS(e FileEntry) (QoS, error) {
	if e.QoS < 0 || e.QoS > int(QoSExactlyOnce) {
		return 0, fmt.Errorf("qos %d for %q must be 0, 1 or 2", e.QoS, e.Key)
	}
	return QoS(e.QoS), nil
}
