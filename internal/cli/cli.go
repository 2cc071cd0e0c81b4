package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/buger/goterm"
	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/pkg/errors"
)

var (
	userColor      = color.New(color.FgWhite, color.Bold)
	botColor       = color.New(color.FgCyan)
	infoColor      = color.New(color.FgGreen)
	warningColor   = color.New(color.FgYellow)
	errorColor     = color.New(color.FgRed)
	titleColor     = color.New(color.FgMagenta, color.Bold)
	separatorColor = color.New(color.FgHiBlack)
	faintColor     = color.New(color.FgHiBlack)
	promptColor    = color.New(color.FgHiBlue)
)

// ErrInterrupted is returned by prompts the user aborted with ctrl+c or ctrl+d.
var ErrInterrupted = errors.New("interrupted")

// Width of the terminal.
func Width() int {
	width := goterm.Width()
	if width <= 0 {
		return 80
	}
	return width
}

// Separator printed to cli.
func Separator() {
	separatorColor.Println(strings.Repeat("-", Width()))
}

// Title printed to cli, centered within separators.
func Title(text string, args ...any) {
	width := Width()
	title := "   " + fmt.Sprintf(text, args...) + "   "
	left := (width - len(title)) / 2
	if left < 0 {
		left = 0
	}
	right := width - len(title) - left
	if right < 0 {
		right = 0
	}
	titleColor.Println(strings.Repeat("-", left) + title + strings.Repeat("-", right))
}

// UserMessage printed to cli.
func UserMessage(timestamp, text string) {
	faintColor.Printf("%s ", timestamp)
	userColor.Println("You")
	fmt.Println(text)
}

// BotMessage printed to cli. `text` is expected to be rendered already.
func BotMessage(timestamp, text string) {
	faintColor.Printf("%s ", timestamp)
	botColor.Println("Assistant")
	fmt.Println(text)
}

// Info printed to cli.
func Info(text string, args ...any) {
	infoColor.Println(fmt.Sprintf(text, args...))
}

// Warning printed to cli.
func Warning(text string, args ...any) {
	warningColor.Println(fmt.Sprintf(text, args...))
}

// Error printed to cli.
func Error(text string, args ...any) {
	errorColor.Println(fmt.Sprintf(text, args...))
}

// Faint prints secondary text.
func Faint(text string, args ...any) {
	faintColor.Println(fmt.Sprintf(text, args...))
}

// PromptUser reads a message. Lines accumulate until ctrl+j is pressed. `history` seeds the
// up/down arrow recall, oldest first. A single line `draft` is typed into the prompt up front.
func PromptUser(history []string, draft string) (string, error) {
	submit := false
	config := &readline.Config{
		Prompt:                 promptColor.Sprint("> "),
		InterruptPrompt:        "^C",
		EOFPrompt:              "exit",
		DisableAutoSaveHistory: true,
		HistorySearchFold:      true,
		FuncFilterInputRune: func(r rune) (rune, bool) {
			if r == '\x0A' { // Ctrl + J
				submit = true
			}
			return r, true
		},
	}

	rl, err := readline.NewEx(config)
	if err != nil {
		return "", errors.Wrap(err, "starting prompt")
	}
	defer rl.Close()
	for _, entry := range history {
		if err := rl.SaveHistory(entry); err != nil {
			return "", errors.Wrap(err, "loading history")
		}
	}
	if draft != "" && !strings.Contains(draft, "\n") {
		if _, err := rl.WriteStdin([]byte(draft)); err != nil {
			return "", errors.Wrap(err, "restoring draft")
		}
	}
	var lines []string
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			return "", ErrInterrupted
		}
		if err != nil {
			return "", errors.Wrap(err, "reading input")
		}
		lines = append(lines, line)
		if submit {
			break
		}
		rl.SetPrompt(promptColor.Sprint(". "))
	}
	return strings.Join(lines, "\n"), nil
}

// QueryUser a yes/no question.
func QueryUser(question string) bool {
	surveyQuestion := &survey.Confirm{
		Message: question,
	}
	confirm := false
	if err := survey.AskOne(surveyQuestion, &confirm); err != nil {
		return false
	}
	return confirm
}

// Input asks for a line of text.
func Input(message string, required bool) (string, error) {
	var answer string
	var opts []survey.AskOpt
	if required {
		opts = append(opts, survey.WithValidator(survey.Required))
	}
	if err := survey.AskOne(&survey.Input{Message: message}, &answer, opts...); err != nil {
		return "", errors.Wrap(err, "reading input")
	}
	return strings.TrimSpace(answer), nil
}

// Password asks for a secret without echoing it.
func Password(message string) (string, error) {
	var answer string
	if err := survey.AskOne(&survey.Password{Message: message}, &answer, survey.WithValidator(survey.Required)); err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	return answer, nil
}
