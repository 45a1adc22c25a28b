package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// DefaultAttempts is how many passwords the prompt accepts before giving up.
const DefaultAttempts = 3

var (
	ErrCancelled       = errors.New("password prompt cancelled")
	ErrTooManyAttempts = errors.New("too many wrong passwords")
)

// CheckFunc reports whether password unlocks the account.
type CheckFunc func(password string) (bool, error)

type promptOutcome int

const (
	promptPending promptOutcome = iota
	promptAccepted
	promptRejected
	promptCancelled
	promptFailed
)

type checkedMsg struct {
	ok  bool
	err error
}

// Prompt asks for a password and checks it until it is accepted, the
// attempts run out, or the user cancels.
type Prompt struct {
	label    string
	check    CheckFunc
	max      int
	input    textinput.Model
	attempts int
	checking bool
	status   string
	outcome  promptOutcome
	err      error
}

func NewPrompt(label string, attempts int, check CheckFunc) *Prompt {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	in := textinput.New()
	in.Prompt = "Password: "
	in.EchoMode = textinput.EchoPassword
	in.EchoCharacter = '*'
	in.Focus()
	return &Prompt{label: label, check: check, max: attempts, input: in}
}

func (p *Prompt) Init() tea.Cmd { return textinput.Blink }

func (p *Prompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		if p.checking {
			return p, nil
		}
		switch m.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			p.outcome = promptCancelled
			return p, tea.Quit
		case tea.KeyEnter:
			p.checking = true
			p.status = "checking..."
			password := p.input.Value()
			return p, func() tea.Msg {
				ok, err := p.check(password)
				return checkedMsg{ok: ok, err: err}
			}
		}
	case checkedMsg:
		p.checking = false
		p.input.Reset()
		switch {
		case m.err != nil:
			p.outcome, p.err = promptFailed, m.err
			return p, tea.Quit
		case m.ok:
			p.outcome = promptAccepted
			return p, tea.Quit
		}
		p.attempts++
		if p.attempts >= p.max {
			p.outcome = promptRejected
			return p, tea.Quit
		}
		left := p.max - p.attempts
		p.status = fmt.Sprintf("wrong password, %d attempt%s left", left, plural(left))
		return p, nil
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *Prompt) View() string {
	if p.outcome != promptPending {
		return ""
	}
	out := titleStyle.Render(p.label) + "\n" + p.input.View()
	out += "\n" + mutedStyle.Render("[enter] Unlock  [esc] Cancel")
	if p.status != "" {
		out += "\n" + p.status
	}
	return out
}

// Result maps the final state to an error; nil means the password was accepted.
func (p *Prompt) Result() error {
	switch p.outcome {
	case promptAccepted:
		return nil
	case promptRejected:
		return ErrTooManyAttempts
	case promptFailed:
		return p.err
	}
	return ErrCancelled
}

// AskPassword runs the prompt as a bubbletea program.
func AskPassword(label string, attempts int, check CheckFunc, opts ...tea.ProgramOption) error {
	final, err := tea.NewProgram(NewPrompt(label, attempts, check), opts...).Run()
	if err != nil {
		return fmt.Errorf("password prompt: %w", err)
	}
	return final.(*Prompt).Result()
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
