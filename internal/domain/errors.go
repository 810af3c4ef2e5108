package domain

import "errors"

var (
	ErrUnknownNetwork = errors.New("unknown network")
	ErrNotConnected   = errors.New("chain connection not established")
	ErrBadSecrets     = errors.New("malformed secrets file")
)
