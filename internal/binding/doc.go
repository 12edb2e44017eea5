// Package binding associates entity keys with broker topics and payload codecs.
//
// There are three independent namespaces, each with its own strongly typed
// binding variant:
//
//   - PropertyBinding: property key → outbound topic + PropertyEncoder
//   - EventBinding: event key → outbound topic + EventEncoder
//   - ActionBinding: action key → inbound topic + ActionDecoder
//
// Bindings are collected with a Builder and frozen into a Registry:
//
//	b := binding.NewBuilder()
//	_ = b.AddPropertyBinding("energy", "dummy/properties/energy",
//	    binding.QoSAtMostOnce, false, binding.TruncatedInt())
//	_ = b.AddActionBinding("switch_off", "app/actions/switch-off",
//	    binding.QoSAtLeastOnce, binding.ConstantAction("OFF"))
//	reg, err := b.Build()
//
// A Registry is immutable and can be shared by any number of goroutines.
//
// Bindings can also be declared in YAML and loaded with LoadFile; see File
// for the format.
package binding
