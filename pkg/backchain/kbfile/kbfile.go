// Package kbfile reads and writes knowledge bases in a line-oriented text
// format:
//
//	# comments start with a hash
//	Bakes(john, cake).
//	bakers: Bakes($Y, cake) => Likes($Y, cake).
//	And(Parent($A, $B), Parent($B, $C)) => Grandparent($A, $C)
//
// One statement per line. A statement is a fact or a rule; rules have an
// optional "name:" prefix and one or more comma-separated conclusions. The
// trailing period is optional.
package kbfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cognicore/backchain/pkg/backchain/internalerr"
	"github.com/cognicore/backchain/pkg/backchain/rules"
	"github.com/cognicore/backchain/pkg/backchain/term"
)

// Program is a parsed knowledge base.
type Program struct {
	Facts []*term.Term
	Rules []*rules.Rule
}

// Append adds the contents of o to p.
func (p *Program) Append(o *Program) {
	if o == nil {
		return
	}
	p.Facts = append(p.Facts, o.Facts...)
	p.Rules = append(p.Rules, o.Rules...)
}

// Len returns the number of statements.
func (p *Program) Len() int { return len(p.Facts) + len(p.Rules) }

// Load parses a knowledge base. Unnamed rules are named after their line.
func Load(r io.Reader) (*Program, error) {
	prog := &Program{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := stripComment(scanner.Text())
		if line == "" {
			continue
		}

		fact, rule, err := ParseStatement(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if rule != nil {
			if rule.Name == "" {
				rule.Name = fmt.Sprintf("rule-%d", lineNum)
			}
			prog.Rules = append(prog.Rules, rule)
			continue
		}
		prog.Facts = append(prog.Facts, fact)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return prog, nil
}

// LoadFile parses the knowledge base stored at path.
func LoadFile(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open knowledge file: %w", err)
	}
	defer f.Close()

	prog, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

// ParseStatement parses a single statement. Exactly one of the returned
// fact and rule is non-nil on success.
func ParseStatement(line string) (*term.Term, *rules.Rule, error) {
	line = strings.TrimSpace(line)
	line = strings.TrimSpace(strings.TrimSuffix(line, "."))
	if line == "" {
		return nil, nil, fmt.Errorf("empty statement: %w", internalerr.ErrInvalidInput)
	}

	arrow := indexOutsideQuotes(line, "=>")
	if arrow < 0 {
		fact, err := term.Parse(line)
		if err != nil {
			return nil, nil, err
		}
		return fact, nil, nil
	}

	head, body := line[:arrow], line[arrow+2:]
	name := ""
	if colon := indexOutsideQuotes(head, ":"); colon >= 0 {
		name = strings.TrimSpace(head[:colon])
		head = head[colon+1:]
		if name == "" {
			return nil, nil, fmt.Errorf("empty rule name: %w", internalerr.ErrInvalidInput)
		}
	}

	premise, err := term.Parse(strings.TrimSpace(head))
	if err != nil {
		return nil, nil, fmt.Errorf("premise: %w", err)
	}
	if strings.TrimSpace(body) == "" {
		return nil, nil, fmt.Errorf("rule %q has no conclusions: %w", name, internalerr.ErrInvalidInput)
	}
	conclusions, err := term.ParseList(body)
	if err != nil {
		return nil, nil, fmt.Errorf("conclusions: %w", err)
	}
	return nil, rules.New(name, premise, conclusions...), nil
}

// Export writes prog in the format Load reads: facts first, then rules.
func Export(w io.Writer, prog *Program) error {
	if w == nil {
		return fmt.Errorf("kbfile export: nil writer: %w", internalerr.ErrInvalidInput)
	}
	bw := bufio.NewWriter(w)
	for _, f := range prog.Facts {
		if _, err := fmt.Fprintf(bw, "%s.\n", f); err != nil {
			return err
		}
	}
	if len(prog.Facts) > 0 && len(prog.Rules) > 0 {
		if _, err := bw.WriteString("\n"); err != nil {
			return err
		}
	}
	for _, r := range prog.Rules {
		if _, err := fmt.Fprintf(bw, "%s.\n", r); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func stripComment(line string) string {
	if i := indexOutsideQuotes(line, "#"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

// indexOutsideQuotes is strings.Index that skips double-quoted atoms.
func indexOutsideQuotes(s, sub string) int {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch {
		case inQuote && s[i] == '\\':
			i++
		case s[i] == '"':
			inQuote = !inQuote
		case !inQuote && strings.HasPrefix(s[i:], sub):
			return i
		}
	}
	return -1
}
