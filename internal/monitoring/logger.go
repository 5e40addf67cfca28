// Package monitoring holds the shared diagnostic logger for the scan
// pipeline. Parse warnings (skipped lines, malformed headers) flow through
// Logf so embedding tools and tests can capture or mute them.
package monitoring

import "log"

// defaultLogf writes through the standard logger, tagged so scan
// diagnostics stand out when interleaved with server request logs.
func defaultLogf(format string, v ...interface{}) {
	log.Printf("scanviz: "+format, v...)
}

// Logf is the package-level diagnostic logger. Replace it with SetLogger
// to redirect or mute scan warnings; Reset restores the default.
var Logf func(format string, v ...interface{}) = defaultLogf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Reset restores the default tagged logger.
func Reset() {
	Logf = defaultLogf
}
