package reactor

import "errors"

// Errors returned at the package's few fallible boundaries (§7: the core
// itself panics on programmer error; these are the legitimate call-site
// failures a caller can recover from).
var (
	// ErrPollCanceled is returned by PollOnce when the caller's context is
	// canceled while a poll is pending. PollStream, Subscribe, and
	// SubscribeEvent have no error return at all — they are iter.Seq
	// sequences that simply end on the same cancellation, without
	// surfacing this or any other error value.
	ErrPollCanceled = errors.New("reactor: poll canceled")

	// ErrInvalidCronExpression is returned by bridge/cron when a schedule
	// string fails to parse.
	ErrInvalidCronExpression = errors.New("reactor: invalid cron expression")
)
