package influxdb

import "errors"

// Sentinel errors; check with errors.Is. Write failures are not returned:
// the non-blocking write API reports them through SetOnError.
var (
	ErrNotConnected     = errors.New("influxdb: not connected")
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrDisabled is returned by Connect when influxdb.enabled is false. The
	// daemon treats it as "run without telemetry".
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
