package avr

import "fmt"

// TopicPrefix is the base topic for all Gray Logic messages.
const TopicPrefix = "graylogic"

// protocolSegment is the protocol identifier used in topics and payloads.
const protocolSegment = "avr"

// RxTopic returns the topic the line transport publishes receiver output on.
// Example: graylogic/rx/avr/living-room
func RxTopic(receiverID string) string {
	return fmt.Sprintf("%s/rx/%s/%s", TopicPrefix, protocolSegment, receiverID)
}

// TxTopic returns the topic the bridge publishes outbound receiver commands on.
// Example: graylogic/tx/avr/living-room
func TxTopic(receiverID string) string {
	return fmt.Sprintf("%s/tx/%s/%s", TopicPrefix, protocolSegment, receiverID)
}

// StateTopic returns the retained topic for one setting in one zone.
// Example: graylogic/state/avr/living-room/zone2/volume
func StateTopic(receiverID string, zone Zone, setting Setting) string {
	return fmt.Sprintf("%s/state/%s/%s/%s/%s", TopicPrefix, protocolSegment, receiverID, zone, setting)
}

// CommandTopic returns the topic commands for a zone arrive on.
// Example: graylogic/command/avr/living-room/main
func CommandTopic(receiverID string, zone Zone) string {
	return fmt.Sprintf("%s/command/%s/%s/%s", TopicPrefix, protocolSegment, receiverID, zone)
}

// CommandSubscribeTopic returns the subscription pattern for every zone's commands.
// Example: graylogic/command/avr/living-room/+
func CommandSubscribeTopic(receiverID string) string {
	return fmt.Sprintf("%s/command/%s/%s/+", TopicPrefix, protocolSegment, receiverID)
}

// AckTopic returns the topic command acknowledgments are published on.
// Example: graylogic/ack/avr/living-room/main
func AckTopic(receiverID string, zone Zone) string {
	return fmt.Sprintf("%s/ack/%s/%s/%s", TopicPrefix, protocolSegment, receiverID, zone)
}

// HealthTopic returns the retained health topic for the bridge.
// Example: graylogic/health/avr/living-room
func HealthTopic(receiverID string) string {
	return fmt.Sprintf("%s/health/%s/%s", TopicPrefix, protocolSegment, receiverID)
}
