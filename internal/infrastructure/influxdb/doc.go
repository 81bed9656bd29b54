// Package influxdb writes receiver telemetry to InfluxDB v2.
//
// Numeric state changes (volume, channel levels, sleep timer) become
// avr_state points tagged by receiver, zone and setting; the bridge
// counters become periodic avr_bridge points. Text-valued settings are
// not written here; the SQLite history keeps those.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry switched off
//	}
//	defer client.Close()
//
//	bridge, _ := avr.NewBridge(avr.BridgeOptions{Telemetry: client})
//
// Writes are non-blocking and batched (batch_size, flush_interval). Async
// write failures are delivered to the SetOnError callback.
package influxdb
