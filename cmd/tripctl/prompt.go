package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"tripsheet/days"
	"tripsheet/models"
	"tripsheet/validation"
)

var errNoAnswer = errors.New("no answer")

// prompter reads answers line by line. Lines are read in the background so a
// question can time out.
type prompter struct {
	out   io.Writer
	lines chan string
	errc  chan error
	err   error
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{out: out, lines: make(chan string), errc: make(chan error, 1)}
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			p.lines <- strings.TrimRight(sc.Text(), "\r")
		}
		err := sc.Err()
		if err == nil {
			err = io.EOF
		}
		p.errc <- err
		close(p.lines)
	}()
	return p
}

func (p *prompter) ask(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	return p.read(nil)
}

// askWithin returns errNoAnswer when nothing is typed within d.
func (p *prompter) askWithin(prompt string, d time.Duration) (string, error) {
	fmt.Fprint(p.out, prompt)
	t := time.NewTimer(d)
	defer t.Stop()
	line, err := p.read(t.C)
	if errors.Is(err, errNoAnswer) {
		fmt.Fprintln(p.out)
	}
	return line, err
}

func (p *prompter) read(timeout <-chan time.Time) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	select {
	case line, ok := <-p.lines:
		if !ok {
			p.err = <-p.errc
			return "", p.err
		}
		return line, nil
	case <-timeout:
		return "", errNoAnswer
	}
}

func (p *prompter) confirm(prompt string) (bool, error) {
	line, err := p.ask(prompt + " [y/N] ")
	if err != nil {
		return false, err
	}
	return yes(line), nil
}

func yes(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "y" || s == "yes"
}

// fillForm walks every customer field. An empty answer keeps the current
// value and "-" clears an optional one. Refused or missing values are asked again.
func fillForm(p *prompter, form *validation.Form) error {
	for _, f := range models.CustomerFields {
		choices := choicesFor(f)
		for {
			if len(choices) > 0 {
				for i, c := range choices {
					fmt.Fprintf(p.out, "  %d) %s\n", i+1, c)
				}
			}
			prompt := f.Label()
			if f.Optional() {
				prompt += " (optional)"
			}
			if cur := form.Value(f); cur != "" {
				prompt += " [" + cur + "]"
			}
			line, err := p.ask(prompt + ": ")
			if err != nil {
				return err
			}
			line = strings.TrimSpace(line)
			switch {
			case line == "-" && f.Optional():
				form.Enter(f, "")
			case line != "":
				if !form.Enter(f, pickChoice(choices, line)) {
					continue
				}
			}
			if form.Blur(f) {
				break
			}
		}
	}
	return nil
}

func choicesFor(f models.CustomerField) []string {
	var out []string
	switch f {
	case models.FieldHotelCategory:
		for _, c := range models.HotelCategories {
			out = append(out, string(c))
		}
	case models.FieldVehicle:
		for _, v := range models.VehicleTypes {
			out = append(out, string(v))
		}
	}
	return out
}

// pickChoice resolves a 1-based option number; anything else is taken as typed.
func pickChoice(choices []string, answer string) string {
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(choices) {
		return choices[n-1]
	}
	return answer
}

// editDays runs a small menu over the schedule until an empty answer.
func editDays(p *prompter, ed *days.Editor) error {
	for {
		printDays(p.out, ed.Entries())
		line, err := p.ask("Days: [a]dd, [e N] edit, [d N] delete, enter to finish: ")
		if err != nil {
			return err
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return nil
		}
		switch fields[0] {
		case "a":
			if err := editDay(p, ed, ed.Add()); err != nil {
				return err
			}
		case "e", "d":
			id, ok := dayAt(ed, fields)
			if !ok {
				fmt.Fprintln(p.out, "No such day")
				continue
			}
			if fields[0] == "d" {
				ed.Delete(id)
				continue
			}
			if err := editDay(p, ed, id); err != nil {
				return err
			}
		default:
			fmt.Fprintln(p.out, "Unknown choice")
		}
	}
}

func dayAt(ed *days.Editor, fields []string) (string, bool) {
	if len(fields) < 2 {
		return "", false
	}
	n, err := strconv.Atoi(fields[1])
	entries := ed.Entries()
	if err != nil || n < 1 || n > len(entries) {
		return "", false
	}
	return entries[n-1].ID, true
}

// editDay asks for a title and a description. The description is read until a
// line holding a single "."; an empty first line keeps the current text.
func editDay(p *prompter, ed *days.Editor, id string) error {
	title, err := p.ask(fmt.Sprintf("Day %d title: ", ed.Number(id)))
	if err != nil {
		return err
	}
	if title = strings.TrimSpace(title); title != "" {
		ed.Update(id, models.SetTitle(title))
	}

	fmt.Fprintln(p.out, "Description (end with a line containing only '.'):")
	var lines []string
	for {
		line, err := p.read(nil)
		if err != nil {
			return err
		}
		if line == "." || (line == "" && len(lines) == 0) {
			break
		}
		lines = append(lines, line)
	}
	if len(lines) > 0 {
		ed.Update(id, models.SetDescription(strings.Join(lines, "\n")))
	}
	return nil
}

func printDays(w io.Writer, entries []models.DayEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, days.EmptyState)
		return
	}
	for i, d := range entries {
		fmt.Fprintf(w, "Day %d: %s\n", models.DayNumber(i), d.DisplayTitle())
		for _, l := range strings.Split(d.Description, "\n") {
			if strings.TrimSpace(l) != "" {
				fmt.Fprintf(w, "    %s\n", l)
			}
		}
	}
}
