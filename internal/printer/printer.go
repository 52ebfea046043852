// Package printer renders CLI output for the nightwatch commands: colored
// status lines on stdout and structured failure reports on stderr. Errors are
// printed here and returned as bare titles, so cobra (with SilenceErrors set)
// never double-prints them.
package printer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
)

func init() {
	// Keep color on when piped; NO_COLOR still wins.
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Success prints a green check line.
func Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if strings.HasPrefix(msg, "✓") {
		green.Print(msg)
		return
	}
	green.Printf("✓ %s", msg)
}

// Warning prints a yellow warning line.
func Warning(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if strings.HasPrefix(msg, "⚠️") {
		yellow.Print(msg)
		return
	}
	yellow.Printf("⚠️  %s", msg)
}

// Step prints one step of a multi-step operation.
func Step(format string, a ...any) {
	cyan.Printf("→ %s", fmt.Sprintf(format, a...))
}

// Info prints an uncolored informational line.
func Info(format string, a ...any) {
	fmt.Printf(format, a...)
}

// Println prints plain output.
func Println(a ...any) {
	fmt.Println(a...)
}

// Printf prints plain formatted output.
func Printf(format string, a ...any) {
	fmt.Printf(format, a...)
}

// Error prints a failure report (title, explanation, suggestions) to stderr
// and returns an error carrying only the title.
func Error(title, explanation string, suggestions []string) error {
	return ErrorWithContext(title, explanation, nil, suggestions)
}

// ErrorWithContext is Error plus a key/value detail block, printed in sorted
// key order.
func ErrorWithContext(title, explanation string, details map[string]string, suggestions []string) error {
	w := os.Stderr

	red.Fprintf(w, "%s\n\n", title)
	if explanation != "" {
		fmt.Fprintf(w, "%s\n", explanation)
	}

	if len(details) > 0 {
		keys := make([]string, 0, len(details))
		for k := range details {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintln(w)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %s\n", k, details[k])
		}
	}

	printSuggestions(w, suggestions)

	return fmt.Errorf("%s", title)
}

func printSuggestions(w io.Writer, suggestions []string) {
	switch len(suggestions) {
	case 0:
	case 1:
		fmt.Fprintf(w, "\n%s\n", suggestions[0])
	default:
		fmt.Fprintf(w, "\nEither:\n")
		for i, s := range suggestions {
			fmt.Fprintf(w, "  %d. %s\n", i+1, s)
		}
	}
}
