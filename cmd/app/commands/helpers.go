// Package commands contains CLI command implementations for the application.
package commands

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"

	"github.com/allisson/devinventory/internal/app"
	secretsDomain "github.com/allisson/devinventory/internal/secrets/domain"
)

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// closeContainer closes all resources in the container and logs any errors.
func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}

// success prints a green check mark followed by the message.
func success(w io.Writer, format string, a ...any) {
	_, _ = fmt.Fprintf(w, "%s %s\n", color.GreenString("✓"), fmt.Sprintf(format, a...))
}

// notice prints a yellow marker followed by the message.
func notice(w io.Writer, format string, a ...any) {
	_, _ = fmt.Fprintf(w, "%s %s\n", color.YellowString("!"), fmt.Sprintf(format, a...))
}

// mask hides all but the first and last two characters of a value.
// Values of three characters or fewer are hidden entirely.
func mask(value []byte) string {
	if len(value) == 0 {
		return "(empty)"
	}
	// Invalid UTF-8 sequences become U+FFFD.
	runes := []rune(string(value))
	if len(runes) <= 3 {
		return "***"
	}
	return string(runes[:2]) + "***" + string(runes[len(runes)-2:])
}

// terminalFd returns the file descriptor of r when it is an interactive terminal.
func terminalFd(r io.Reader) (int, bool) {
	f, ok := r.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

// readSecretValue reads a secret value without echoing it when the reader is a
// terminal. Piped input is read to EOF with one trailing line break removed.
func readSecretValue(stdio IOTuple, prompt string) ([]byte, error) {
	if fd, ok := terminalFd(stdio.Reader); ok {
		_, _ = fmt.Fprint(stdio.Writer, prompt)
		value, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(stdio.Writer)
		if err != nil {
			return nil, fmt.Errorf("failed to read secret value: %w", err)
		}
		return value, nil
	}

	if stdio.Reader == nil {
		return nil, errors.New("no secret value given and no input to read it from")
	}

	value, err := io.ReadAll(stdio.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret value: %w", err)
	}
	return trimLineBreak(value), nil
}

func trimLineBreak(value []byte) []byte {
	value = bytes.TrimSuffix(value, []byte("\n"))
	return bytes.TrimSuffix(value, []byte("\r"))
}

// confirm asks a yes/no question and reports whether the answer was yes.
// A missing or unreadable answer counts as no.
func confirm(stdio IOTuple, question string) (bool, error) {
	if stdio.Reader == nil {
		return false, nil
	}

	_, _ = fmt.Fprintf(stdio.Writer, "%s [y/N]: ", question)
	answer, err := bufio.NewReader(stdio.Reader).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// validateFormat rejects output formats other than text and json.
func validateFormat(format string) error {
	switch format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("invalid format: %s (valid options: text, json)", format)
	}
}

// outputMetadata renders secret metadata as a table or as a JSON array.
func outputMetadata(w io.Writer, items []*secretsDomain.SecretMetadata, format string) error {
	if format == "json" {
		if items == nil {
			items = []*secretsDomain.SecretMetadata{}
		}
		jsonBytes, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(jsonBytes))
		return err
	}

	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "no secrets found")
		return err
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Name", "Kind", "Created At", "Updated At"})
	for _, item := range items {
		kind := ""
		if item.Kind != nil {
			kind = *item.Kind
		}
		tw.AppendRow(table.Row{
			item.Name,
			kind,
			item.CreatedAt.Format(time.RFC3339),
			item.UpdatedAt.Format(time.RFC3339),
		})
	}
	tw.Render()
	return nil
}
