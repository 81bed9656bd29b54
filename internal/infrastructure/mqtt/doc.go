// Package mqtt provides MQTT client connectivity for the AVR bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions, restored after every reconnect
//   - Last Will and Testament (LWT) for offline detection
//
// The receiver line transport and every other consumer of the bridge sit
// on the far side of the broker:
//
//	line transport ↔ MQTT broker ↔ avr-bridge ↔ MQTT broker ↔ controllers
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, &mqtt.Will{
//	    Topic:    avr.HealthTopic("living-room"),
//	    Payload:  lwt,
//	    QoS:      1,
//	    Retained: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	bridge, err := avr.NewBridge(avr.BridgeOptions{
//	    MQTTClient: mqtt.BridgeClient{Client: client},
//	})
package mqtt
