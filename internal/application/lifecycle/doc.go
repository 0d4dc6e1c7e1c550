// Package lifecycle wires the site together and runs it.
//
// Run acquires the shared upstream client when serving starts and releases
// it when serving stops, whether that is caused by the context ending or by a
// server failing to listen.
package lifecycle
