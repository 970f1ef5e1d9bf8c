package constants

const (
	// DateFormat is the canonical day key format (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the task schedule format (HH:MM)
	TimeFormat = "15:04"

	// LocalTimezone selects the zone of the running process
	LocalTimezone = "Local"
)

// TimestampFormat is the fixed-width UTC layout used for stored creation
// times so that they sort lexicographically.
const TimestampFormat = "2006-01-02T15:04:05.000000000Z07:00"
