package constants

const (
	AppName            = "trecker"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/trecker/trecker.db"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// DefaultTime is substituted whenever a time string fails validation.
	DefaultTime = "12:00"

	// Generation caps. A rule without an end date would otherwise produce an
	// unbounded series; each kind has a hard horizon instead.
	MaxDailyOccurrences          = 365
	MaxWeeklyWeeks               = 52
	MaxMonthlyMonths             = 12
	MaxYearlyOccurrences         = 5
	MaxIntervalOccurrences       = 1000
	MaxYearlyIntervalOccurrences = 50
	MaxGeneratedOccurrences      = 1000
	MaxScanDays                  = 365

	// Priority bounds for habits
	MinPriority = 1
	MaxPriority = 5

	// Notify constants
	NotifierLockfileName   = "trecker-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.mkoval.trecker"

	// DefaultAdvanceMinutes is the default reminder lead time.
	DefaultAdvanceMinutes = 0
)

// AdvanceOptions are the accepted reminder lead times, in minutes.
var AdvanceOptions = []int{0, 5, 15, 30, 60, 120, 1440}
