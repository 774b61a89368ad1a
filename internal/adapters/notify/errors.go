package notify

import "errors"

var (
	// ErrChannelUnavailable indicates the channel could not be initialized.
	ErrChannelUnavailable = errors.New("notification channel unavailable")
	// ErrSend indicates a delivery attempt failed.
	ErrSend = errors.New("sending notification failed")
)
