package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// clearValue typed at a prompt empties an optional answer.
const clearValue = "-"

// prompter reads one answer per line. An empty line keeps the current value.
type prompter struct {
	r *bufio.Reader
	w io.Writer
}

func newPrompter(r io.Reader, w io.Writer) *prompter {
	return &prompter{r: bufio.NewReader(r), w: w}
}

func (p *prompter) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *prompter) readLine() (string, error) {
	line, err := p.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *prompter) ask(label, current string) (string, error) {
	if current != "" {
		p.printf("%s [%s]: ", label, current)
	} else {
		p.printf("%s: ", label)
	}
	return p.readLine()
}

func (p *prompter) text(label, current string) (string, error) {
	answer, err := p.ask(label, current)
	if err != nil {
		return "", err
	}
	switch answer {
	case "":
		return current, nil
	case clearValue:
		return "", nil
	}
	return answer, nil
}

func (p *prompter) choice(label, current string, options []string) (string, error) {
	full := fmt.Sprintf("%s (%s)", label, strings.Join(options, ", "))
	for {
		answer, err := p.text(full, current)
		if err != nil {
			return "", err
		}
		answer = strings.ToLower(answer)
		if answer == "" || slices.Contains(options, answer) {
			return answer, nil
		}
		p.printf("  please choose one of: %s\n", strings.Join(options, ", "))
	}
}

// amount accepts "350000", "$350,000" or "6.25".
func (p *prompter) amount(label string, current *float64) (*float64, error) {
	shown := ""
	if current != nil {
		shown = strconv.FormatFloat(*current, 'f', -1, 64)
	}
	for {
		answer, err := p.ask(label, shown)
		if err != nil {
			return nil, err
		}
		switch answer {
		case "":
			return current, nil
		case clearValue:
			return nil, nil
		}
		cleaned := strings.NewReplacer("$", "", ",", "", "%", "", " ", "").Replace(answer)
		v, err := strconv.ParseFloat(cleaned, 64)
		if err == nil && v >= 0 {
			return &v, nil
		}
		p.printf("  please enter a number\n")
	}
}

func (p *prompter) count(label string, current int) (int, error) {
	for {
		answer, err := p.ask(label, strconv.Itoa(current))
		if err != nil {
			return 0, err
		}
		if answer == "" {
			return current, nil
		}
		v, err := strconv.Atoi(answer)
		if err == nil && v >= 0 {
			return v, nil
		}
		p.printf("  please enter a whole number\n")
	}
}

func (p *prompter) yesNo(label string, current bool) (bool, error) {
	def := "y/N"
	if current {
		def = "Y/n"
	}
	for {
		p.printf("%s [%s]: ", label, def)
		answer, err := p.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return current, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		p.printf("  please answer y or n\n")
	}
}
