// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, not found, ambiguous).
	UserError = 1

	// AuthError indicates an auth/config error.
	AuthError = 2

	// BackendError indicates the server refused a request it received.
	// Offline operation is not an error and exits with Success.
	BackendError = 3

	// LocalError indicates the device store failed.
	LocalError = 4
)
