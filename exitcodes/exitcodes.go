// Package exitcodes defines the standard exit codes used by pw-reporter.
package exitcodes

// Exit code constants used by pw-reporter
// These constants define the exit codes that the application uses to indicate
// various states when it exits:
//
// * Success (0): Used when the report was generated and no failure gating applies
// * TestFailure (1): Used when fail-on-failure is set and the run contains failed tests
// * RuntimeErr (2): Used for runtime errors such as unwritable artifacts, panics or bad configuration
const (
	Success     = 0 // Report generated
	TestFailure = 1 // Reported run contains test failures
	RuntimeErr  = 2 // Runtime errors or bad configuration
)
