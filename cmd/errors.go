package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// exit is swapped out in tests.
var exit = os.Exit

// HandleError prints a user-friendly message (or the full technical
// error when --verbose is set) and exits with status 1.
func HandleError(userMsg string, technicalErr error) {
	PrintError(userMsg, technicalErr)
	exit(1)
}

// PrintError prints an error message without exiting, allowing recovery.
func PrintError(userMsg string, technicalErr error) {
	if viper.GetBool("verbose") && technicalErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", technicalErr)
	} else {
		fmt.Fprintln(os.Stderr, userMsg)
	}
}

// LogError logs a debug message to stderr in verbose mode only.
func LogError(msg string, err error) {
	if !viper.GetBool("verbose") {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "[DEBUG] %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "[DEBUG] %s\n", msg)
	}
}
