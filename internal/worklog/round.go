package worklog

// DefaultRoundingMinutes is the rounding increment used when none is set.
const DefaultRoundingMinutes = 15

// Granularity returns the rounding increment in seconds. Accuracy 8 and up
// uses a fifteenth of the configured increment (at least one minute),
// accuracy 3 and below doubles it.
func Granularity(roundingMinutes, accuracy int) int64 {
	if roundingMinutes < 1 {
		roundingMinutes = 1
	}
	minutes := roundingMinutes
	switch {
	case accuracy >= 8:
		minutes = max(roundingMinutes/15, 1)
	case accuracy <= 3:
		minutes = roundingMinutes * 2
	}
	return int64(minutes) * 60
}

// Round rounds seconds up to the next multiple of the granularity. Any
// positive input yields at least one increment; zero or less yields zero.
func Round(seconds int64, roundingMinutes, accuracy int) int64 {
	if seconds <= 0 {
		return 0
	}
	g := Granularity(roundingMinutes, accuracy)
	return (seconds + g - 1) / g * g
}
