// Package clipboard writes transcripts to the system clipboard.
package clipboard

import (
	"fmt"

	atotto "github.com/atotto/clipboard"
)

// Writer is the clipboard action target.
type Writer struct{}

// New returns a Writer for the system clipboard.
func New() *Writer { return &Writer{} }

// Write replaces the clipboard contents with text.
func (*Writer) Write(text string) error {
	if err := atotto.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}
