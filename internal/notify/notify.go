package notify

import (
	"io"
	"os"
)

// Notifier signals a noteworthy event to the operator.
type Notifier interface {
	Notify()
}

// BellNotifier rings the terminal bell.
type BellNotifier struct {
	w io.Writer
}

// NewBellNotifier writes the bell to stdout.
func NewBellNotifier() *BellNotifier {
	return &BellNotifier{w: os.Stdout}
}

// NewBellNotifierWriter writes the bell to the given writer.
func NewBellNotifierWriter(w io.Writer) *BellNotifier {
	return &BellNotifier{w: w}
}

func (b *BellNotifier) Notify() {
	_, _ = b.w.Write([]byte("\a"))
}

// NopNotifier does nothing; used when the bell is disabled.
type NopNotifier struct{}

func (NopNotifier) Notify() {}
