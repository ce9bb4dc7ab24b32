package analytics

// Time blocks derived from an hour of day.
const (
	BlockMorning   = "morning"
	BlockLunch     = "lunch"
	BlockAfternoon = "afternoon"
	BlockEvening   = "evening"
	BlockNight     = "night"
	BlockOther     = "other"
	BlockUnknown   = "unknown"
)

// Day types derived from a date's weekday.
const (
	DayTypeWeekend = "weekend"
	DayTypeWeekday = "weekday"
)

// HourBlock buckets an hour of day into a coarse time block. Night wraps
// past midnight through 02:00; hours outside any block (03–05) are "other".
func HourBlock(hour int) string {
	switch {
	case hour >= 6 && hour <= 10:
		return BlockMorning
	case hour >= 11 && hour <= 14:
		return BlockLunch
	case hour >= 15 && hour <= 17:
		return BlockAfternoon
	case hour >= 18 && hour <= 21:
		return BlockEvening
	case hour >= 22 || (hour >= 0 && hour <= 2):
		return BlockNight
	default:
		return BlockOther
	}
}
