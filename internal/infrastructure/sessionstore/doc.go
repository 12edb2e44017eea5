// Package sessionstore selects where in-flight QoS 1 and 2 MQTT packets are
// kept between the send and its acknowledgement.
//
// With a clean session the memory store is enough. A persistent session
// (clean_session: false) needs a durable store so unacknowledged packets
// are resent after a restart; paho's file store and the SQLite store in this
// package both serve that.
package sessionstore
