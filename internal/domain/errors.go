package domain

import "errors"

// Sentinel errors for the position lifecycle. All of them are recovered
// locally by the orchestrator; none is fatal to a scan cycle.
var (
	// ErrDuplicateMarket means an OPEN position already exists for the
	// (venue, market id) pair. First writer wins; the second attempt is
	// dropped.
	ErrDuplicateMarket = errors.New("open position already exists for market")

	// ErrUnknownPosition means a refresh or settle referenced a position id
	// that does not exist.
	ErrUnknownPosition = errors.New("unknown position id")

	// ErrMalformedOpportunity means a venue adapter returned a record with
	// missing or out-of-range required fields.
	ErrMalformedOpportunity = errors.New("malformed opportunity record")
)
