package models

import "errors"

// ErrTradeImmutable is returned by hooks guarding the append-only trade log.
var ErrTradeImmutable = errors.New("trade log entries are immutable")
