package core

// Logger is any leveled logger that can report errors for observability.
// Implementations may inspect args for well-known types (eg. the logged-in
// user) to enrich reports.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
