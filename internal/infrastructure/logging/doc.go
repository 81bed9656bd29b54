// Package logging provides structured logging for the AVR bridge.
//
// It wraps log/slog so that every entry carries the service name and
// version, and offers child loggers scoped to a component or receiver.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	bridgeLog := logger.Component("bridge").Receiver("living-room", "main")
//	bridgeLog.Info("state changed", "setting", "volume")
//
// Never log the MQTT password or the InfluxDB token.
package logging
