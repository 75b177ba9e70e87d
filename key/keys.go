// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Playback Behavior - these keys govern the session orchestrator's local defaults.
const (
	PlayerSeekStep             = "player.seek_step"
	PlayerCompletionPercentage = "player.completion_percentage"
	PlayerAutoplay             = "player.autoplay"
)

// History Tracking - these keys configure the persistence of resume positions.
const (
	HistorySaveOnWatch = "history.save_on_watch"
)

// Casting - these keys tune the cast handoff coordinator's evaluation cadence.
const (
	CastPollInterval = "cast.poll_interval"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these settings govern the command-line surface.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
