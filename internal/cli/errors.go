package cli

import "fmt"

// ExitCode is the process exit status of a command.
type ExitCode int

const (
	ExitOK           ExitCode = 0
	ExitGeneralError ExitCode = 1
	// ExitViolations is returned by check when the layout is not valid.
	ExitViolations ExitCode = 1
	ExitUsage      ExitCode = 2
)

// CLIError carries an exit code and a user-facing message. An empty
// message exits silently; the command has already reported.
type CLIError struct {
	Code    ExitCode
	Message string
	Err     error
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// WrapCLIError returns a CLIError for err.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
