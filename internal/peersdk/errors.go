package peersdk

import "errors"

var (
	ErrFileNotFound = errors.New("peersdk: file not found on peer")
)
