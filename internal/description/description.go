package description

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Stdin is the path that reads the description from the supplied reader.
const Stdin = "-"

// ErrEmpty is returned by Validate for empty or whitespace-only text.
var ErrEmpty = errors.New("project description is empty")

// Description is the free-text project description being analyzed.
type Description struct {
	Paths []string
	Hash  string // "sha256:<hex>" of Text before redaction
	Text  string
}

// FromText wraps text supplied directly, e.g. from a flag or request body.
func FromText(text string) *Description {
	return &Description{Hash: hash(text), Text: text}
}

// Load reads one or more description files and joins them with blank lines.
// A path of "-" reads from stdin.
func Load(paths []string, stdin io.Reader) (*Description, error) {
	if len(paths) == 0 {
		return nil, errors.New("no description file given")
	}
	parts := make([]string, 0, len(paths))
	for _, p := range paths {
		text, err := read(p, stdin)
		if err != nil {
			return nil, err
		}
		parts = append(parts, strings.TrimRight(text, "\r\n"))
	}
	text := strings.Join(parts, "\n\n")
	return &Description{Paths: paths, Hash: hash(text), Text: text}, nil
}

// Validate returns ErrEmpty when the description has no content.
func (d *Description) Validate() error {
	if d == nil || strings.TrimSpace(d.Text) == "" {
		return ErrEmpty
	}
	return nil
}

// Source names where the description came from, for reports.
func (d *Description) Source() string {
	if len(d.Paths) == 0 {
		return "text"
	}
	return strings.Join(d.Paths, ",")
}

func read(path string, stdin io.Reader) (string, error) {
	if path == Stdin {
		if stdin == nil {
			return "", errors.New("reading description from stdin: no input")
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading description from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading description file: %w", err)
	}
	return string(data), nil
}

func hash(text string) string {
	return fmt.Sprintf("sha256:%x", sha256.Sum256([]byte(text)))
}
