// Package prompt assembles classification prompts from named template files
// and per-entry input fields.
package prompt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrTemplateNotFound is returned when the named template file is missing
// or unreadable.
var ErrTemplateNotFound = errors.New("prompt template not found")

// Field is one "key: value" input line. Fields keep their caller-supplied
// order, which is why a slice is used instead of a map.
type Field struct {
	Key   string
	Value string
}

// Builder loads templates from a directory on each Build call, so template
// edits take effect without a restart.
type Builder struct {
	dir string
}

func NewBuilder(dir string) *Builder {
	return &Builder{dir: dir}
}

// Build reads the named template and appends the fields as "key: value"
// lines separated from the template text by a blank line. Field values are
// inserted verbatim; sanitization is the caller's concern.
func (b *Builder) Build(name string, fields []Field) (string, error) {
	raw, err := os.ReadFile(filepath.Join(b.dir, name))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTemplateNotFound, name, err)
	}

	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, f.Key+": "+f.Value)
	}

	return strings.TrimSpace(string(raw)) + "\n\n" + strings.Join(lines, "\n"), nil
}
