package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/manifoldco/promptui"
)

var errEmptyInput = errors.New("you must enter something")

// Asker collects shell input. Prompter is the terminal implementation.
type Asker interface {
	Select(label string, items []string) (string, error)
	String(label string) (string, error)
	Float(label string) (float32, error)
	Int(label string) (int, error)
}

// Prompter asks questions on a terminal with promptui.
type Prompter struct {
	in  io.ReadCloser
	out io.WriteCloser
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// NewPrompter reads from in and writes to out. Neither is closed.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  io.NopCloser(in),
		out: nopWriteCloser{out},
	}
}

func (p *Prompter) Select(label string, items []string) (string, error) {
	sel := &promptui.Select{
		Label:  label,
		Items:  items,
		Size:   len(items),
		Stdin:  p.in,
		Stdout: p.out,
	}

	_, value, err := sel.Run()

	return value, err
}

func (p *Prompter) String(label string) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Validate: func(s string) error {
			if len(s) == 0 {
				return errEmptyInput
			}

			return nil
		},
		Stdin:  p.in,
		Stdout: p.out,
	}

	return prompt.Run()
}

func (p *Prompter) Float(label string) (float32, error) {
	prompt := promptui.Prompt{
		Label: label,
		Validate: func(s string) error {
			if _, err := strconv.ParseFloat(s, 32); err != nil {
				return fmt.Errorf("invalid number: %w", err)
			}

			return nil
		},
		Stdin:  p.in,
		Stdout: p.out,
	}

	txt, err := prompt.Run()
	if err != nil {
		return 0, err
	}

	val, err := strconv.ParseFloat(txt, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %w", err)
	}

	return float32(val), nil
}

func (p *Prompter) Int(label string) (int, error) {
	prompt := promptui.Prompt{
		Label: label,
		Validate: func(s string) error {
			if _, err := strconv.ParseInt(s, 10, 32); err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}

			return nil
		},
		Stdin:  p.in,
		Stdout: p.out,
	}

	txt, err := prompt.Run()
	if err != nil {
		return 0, err
	}

	val, err := strconv.ParseInt(txt, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %w", err)
	}

	return int(val), nil
}

// IsAbort reports whether err means the user left the prompt.
func IsAbort(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) ||
		errors.Is(err, promptui.ErrEOF) ||
		errors.Is(err, promptui.ErrAbort) ||
		errors.Is(err, io.EOF)
}
