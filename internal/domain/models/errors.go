package models

import "errors"

var (
	// ErrDataUnavailable signals the provider could not supply the
	// requested candle window. Detector evaluation skips the tick;
	// confirmation stages defer and retry.
	ErrDataUnavailable = errors.New("candle data unavailable")

	// ErrCooldownActive rejects signal creation while the symbol is
	// cooling down, regardless of direction.
	ErrCooldownActive = errors.New("symbol in cooldown")

	// ErrDuplicatePending rejects a second record for a symbol+direction
	// while one is still pending.
	ErrDuplicatePending = errors.New("confirmation already pending")

	// ErrInvalidCandle marks candles failing integrity checks.
	ErrInvalidCandle = errors.New("invalid candle")
)
