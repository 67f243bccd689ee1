package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/lounge/internal/prompt"
	"github.com/matheus3301/lounge/internal/tui/ui"
	"github.com/rivo/tview"
)

// AuthView shows login links as QR codes and asks for login input.
type AuthView struct {
	*tview.Flex
	text     *tview.TextView
	input    *tview.InputField
	asking   bool
	onAnswer func(string)
}

// NewAuthView creates a new auth view.
func NewAuthView(theme *ui.Theme) *AuthView {
	text := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	text.SetBorder(true)
	text.SetBorderColor(theme.Border)
	text.SetBackgroundColor(theme.Bg)
	text.SetTextColor(theme.Fg)
	text.SetTitle(" Authentication Required ")
	text.SetTitleColor(theme.Title)

	input := tview.NewInputField().SetFieldWidth(0)
	input.SetBorder(true)
	input.SetBorderColor(theme.PromptBorder)
	input.SetBackgroundColor(theme.Bg)
	input.SetFieldBackgroundColor(theme.Bg)
	input.SetFieldTextColor(theme.Fg)
	input.SetLabelColor(theme.Key)

	av := &AuthView{
		Flex: tview.NewFlex().
			SetDirection(tview.FlexRow).
			AddItem(text, 0, 1, false).
			AddItem(input, 0, 0, false),
		text:  text,
		input: input,
	}
	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			av.Submit()
		}
	})
	av.ShowMessage("Connecting...")
	return av
}

// Name implements ui.Component.
func (av *AuthView) Name() string { return "auth" }

// ShowQR renders link as a QR code to scan from the phone.
func (av *AuthView) ShowQR(link string) error {
	qr, err := prompt.RenderQR(link)
	if err != nil {
		av.ShowMessage(err.Error())
		return err
	}
	av.text.Clear()
	_, _ = fmt.Fprintf(av.text, "\n  Scan this QR code with WhatsApp (Linked devices):\n\n%s\n  [::d]Waiting for authentication...[-:-:-]", qr)
	return nil
}

// ShowMessage displays a status line.
func (av *AuthView) ShowMessage(msg string) {
	av.text.Clear()
	_, _ = fmt.Fprintf(av.text, "\n\n%s", tview.Escape(msg))
}

// Ask shows the input field labelled label, masked when secret. onAnswer
// receives the trimmed text on Enter, after which the field is hidden again.
func (av *AuthView) Ask(label string, secret bool, onAnswer func(string)) {
	av.asking = true
	av.onAnswer = onAnswer
	av.input.SetLabel(" " + label + ": ")
	av.input.SetText("")
	if secret {
		av.input.SetMaskCharacter('*')
	} else {
		av.input.SetMaskCharacter(0)
	}
	av.ResizeItem(av.input, 3, 0)
}

// Asking reports whether an answer is pending.
func (av *AuthView) Asking() bool {
	return av.asking
}

// Cancel hides the input without answering.
func (av *AuthView) Cancel() {
	av.asking = false
	av.onAnswer = nil
	av.ResizeItem(av.input, 0, 0)
}

// Input returns the input field, for focus management.
func (av *AuthView) Input() *tview.InputField {
	return av.input
}

// Submit answers the pending question with the input text.
func (av *AuthView) Submit() {
	if !av.asking {
		return
	}
	fn := av.onAnswer
	text := strings.TrimSpace(av.input.GetText())
	av.Cancel()
	av.input.SetText("")
	if fn != nil {
		fn(text)
	}
}
