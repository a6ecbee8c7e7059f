package notify

import "errors"

var (
	// ErrChannelDisabled is returned by Send on a channel the operator
	// has switched off.
	ErrChannelDisabled = errors.New("channel is disabled")

	// ErrInvalidReport marks a report with no title or an unknown status.
	ErrInvalidReport = errors.New("invalid report data")
)
