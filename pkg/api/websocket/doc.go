// Package websocket provides the live clock stream used by the home page.
package websocket
