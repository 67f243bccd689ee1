// Package prompt answers handshake prompts on a plain terminal.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/matheus3301/lounge/internal/adapter"
	qrcode "github.com/skip2/go-qrcode"
)

// ErrClosed is returned once the input has ended.
var ErrClosed = errors.New("prompt: input closed")

// Terminal reads answers line by line from in and writes prompts to out.
// Input is read on a background goroutine so a prompt can be abandoned
// when its context ends.
type Terminal struct {
	in  io.Reader
	out io.Writer

	once    sync.Once
	lines   chan string
	readErr error // set before lines is closed

	mu       sync.Mutex
	lastLink string
}

// NewTerminal creates a prompter over in and out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: in, out: out, lines: make(chan string)}
}

func (t *Terminal) read() {
	sc := bufio.NewScanner(t.in)
	for sc.Scan() {
		t.lines <- sc.Text()
	}
	t.readErr = sc.Err()
	if t.readErr == nil {
		t.readErr = ErrClosed
	}
	close(t.lines)
}

// Prompt implements adapter.Prompter.
func (t *Terminal) Prompt(ctx context.Context, kind adapter.PromptKind, hint string) (string, error) {
	t.once.Do(func() { go t.read() })

	label := kind.String()
	if hint != "" {
		label += " (hint: " + hint + ")"
	}
	if _, err := fmt.Fprintf(t.out, "%s: ", label); err != nil {
		return "", err
	}

	select {
	case l, ok := <-t.lines:
		if !ok {
			return "", t.readErr
		}
		return strings.TrimSpace(l), nil
	case <-ctx.Done():
		_, _ = fmt.Fprintln(t.out)
		return "", ctx.Err()
	}
}

// ShowLink implements adapter.Prompter by printing the link as a QR code.
// A link already shown is not printed again.
func (t *Terminal) ShowLink(_ context.Context, link string) error {
	t.mu.Lock()
	if link == t.lastLink {
		t.mu.Unlock()
		return nil
	}
	t.lastLink = link
	t.mu.Unlock()

	qr, err := RenderQR(link)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(t.out, "\nScan this QR code with WhatsApp (Linked devices):\n\n%s\n", qr)
	return err
}

// RenderQR converts a string to a compact QR code using Unicode
// half-block characters. Two bitmap rows become one terminal line.
func RenderQR(content string) (string, error) {
	qr, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "", fmt.Errorf("QR generation failed: %w", err)
	}
	qr.DisableBorder = false

	bitmap := qr.Bitmap()
	rows := len(bitmap)
	cols := 0
	if rows > 0 {
		cols = len(bitmap[0])
	}

	var sb strings.Builder
	for y := 0; y < rows; y += 2 {
		sb.WriteString("  ")
		for x := 0; x < cols; x++ {
			top := bitmap[y][x] // true = black module
			bot := y+1 < rows && bitmap[y+1][x]
			switch {
			case top && bot:
				sb.WriteRune('\u2588') // █
			case top:
				sb.WriteRune('\u2580') // ▀
			case bot:
				sb.WriteRune('\u2584') // ▄
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}
	return sb.String(), nil
}
