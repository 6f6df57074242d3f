package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure, interrupted)
	ExitConfigError = 2 // Configuration error (bad config file or values)
	ExitDataError   = 3 // Data error (unreadable or unparseable input, check found errors)
)
