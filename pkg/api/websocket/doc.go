// Package websocket provides item submission over WebSocket connections.
package websocket
