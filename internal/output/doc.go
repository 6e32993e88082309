// Package output provides structured output handling for the mdrebase CLI.
//
// This package handles both human-readable and JSON output formats, so
// every command works equally well for human users and for scripts or
// agents consuming structured results.
//
// # Printer
//
// The Printer is the primary interface for command output. It switches
// format based on the --json flag and TTY detection:
//
//	printer := output.NewPrinter(cmd.OutOrStdout(), jsonFlag, output.IsTTY(cmd.OutOrStdout()))
//
//	// For success output
//	printer.Success(map[string]any{"message": "Processed 12 files", "files": 12})
//
//	// For error output
//	printer.Error(err)
//
//	// For raw output
//	printer.Println("Some text")
//	printer.Print("Rebased: %s\n", ref)
//
// # JSON Mode
//
// When JSON mode is enabled (via --json flag), all output is structured:
//
//	// Success: {"message": "...", "files": N, ...}
//	// Error: {"error": "message", "code": N}
//
// # Styling
//
// For human-readable output, the package provides lipgloss-based styling
// that automatically disables when output is piped or $NO_COLOR is set.
//
// # Exit Codes
//
// The package defines the exit codes and error types:
//
//	output.ExitSuccess     // 0: Success
//	output.ExitUserError   // 1: User error (bad flags, broken config)
//	output.ExitSystemError // 2: System error (scan or file I/O failure)
//
// # Error Types
//
// Use the error constructors to create properly-coded errors:
//
//	output.NewUserError("unknown run id: abc")
//	output.NewSystemErrorWithCause("migration failed", err)
//
// These errors carry exit codes that are used for both JSON error output
// and the process exit status.
package output
