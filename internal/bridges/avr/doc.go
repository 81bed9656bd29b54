// Package avr implements the AV receiver protocol bridge for Gray Logic.
//
// Multi-zone AV receivers speak a line-oriented ASCII protocol: every line
// is an upper-case command such as "PWON", "MV505", "CVFL 50" or "Z2TUNER".
// This package turns those lines into typed setting/value changes and turns
// setting/value changes back into command lines.
//
// # Architecture
//
//	┌─────────────────┐          ┌─────────────────┐   rx/tx    ┌────────────┐
//	│   Gray Logic    │   MQTT   │   AVR Bridge    │◄──────────►│    line    │◄──► Receiver
//	│      Core       │◄────────►│   (this pkg)    │    MQTT    │ transport  │
//	└─────────────────┘          └─────────────────┘            └────────────┘
//
// The socket connection to the receiver is owned by a separate line
// transport which publishes received lines on the rx topic and writes
// whatever arrives on the tx topic.
//
// # Codec
//
// The codec is pure and synchronous:
//
//   - Grammar: an immutable dispatch table of tagged matchers. The main zone
//     is keyed by a two-character prefix (MainGrammar); secondary zones are a
//     fixed chain behind a "Z2"/"Z3" tag (ZoneGrammar).
//   - ZoneState: last value per setting plus a FIFO queue of real changes.
//   - Manager: routes each line to the first zone that claims it and drains
//     the queues in main, zone2, zone3 order.
//   - FormatCommand: the reverse mapping from setting and value to a line.
//
// Example:
//
//	m := avr.NewManager(avr.ManagerOptions{Zone2: avr.NewZoneState()})
//	m.HandleCommand("MV505")
//	m.HandleCommand("Z2TUNER")
//	m.SendUpdates(func(cmd string) { fmt.Println(cmd) }) // MV505, Z2TUNER
//
// # Keyed Settings
//
// Channel volume, surround levels, surround speakers and parameters address
// a sub-key. Their state keeps a dictionary of the latest value per key,
// which is stamped onto every stored value.
package avr
