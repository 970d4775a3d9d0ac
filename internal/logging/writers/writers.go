// Package writers resolves a log output setting to an io.Writer.
package writers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// CreateWriter creates an io.Writer based on the output specification.
// Supported formats:
//   - "stdout" or "" - writes to os.Stdout
//   - "stderr" - writes to os.Stderr
//   - "file:///path/to/file" - appends to the file
//   - "/path/to/file" or "logs/appforge.log" - appends to the file
//
// Parent directories of file targets are created as needed.
func CreateWriter(output string) (io.Writer, error) {
	switch {
	case output == "" || output == "stdout":
		return os.Stdout, nil
	case output == "stderr":
		return os.Stderr, nil
	case strings.HasPrefix(output, "file://"):
		return openAppend(strings.TrimPrefix(output, "file://"))
	case strings.Contains(output, "://"):
		return nil, fmt.Errorf("unsupported output scheme: %s", output)
	case strings.ContainsAny(output, `/\`) || filepath.Ext(output) != "":
		return openAppend(output)
	default:
		return nil, fmt.Errorf("unsupported output format: %s", output)
	}
}

func openAppend(path string) (io.Writer, error) {
	if path == "" {
		return nil, fmt.Errorf("empty log file path")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	return file, nil
}
