package internal

import "errors"

var ErrRequestTimeout = errors.New("request timed out")
