package ircclient

import (
	"errors"
	"fmt"
)

var (
	ErrMissingHost         = errors.New("host is empty")
	ErrMissingUserName     = errors.New("user name is empty")
	ErrMissingNickName     = errors.New("nick name is empty")
	ErrMissingRealName     = errors.New("real name is empty")
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
	ErrAlreadyActive       = errors.New("session is already active")
	ErrNotConnected        = errors.New("not connected")
)

// SocketError is a transport failure. It always ends the connection.
type SocketError struct {
	Op  string
	Err error
}

func (e *SocketError) Error() string {
	return fmt.Sprintf("socket %s: %s", e.Op, e.Err.Error())
}

func (e *SocketError) Unwrap() error {
	return e.Err
}
