package clientsession

import "errors"

var (
	ErrNotConnected      = errors.New("clientsession: not connected")
	ErrConnectTimeout    = errors.New("clientsession: timed out waiting for connection")
	ErrSessionStopped    = errors.New("clientsession: session stopped")
	ErrSessionDisconnected = errors.New("clientsession: session disconnected")
	ErrUnexpectedResponse  = errors.New("clientsession: unexpected response")
)
