package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"DerivLex/internal/automaton"
	"DerivLex/internal/lexer"
	"DerivLex/internal/rules"
	"DerivLex/internal/scan"
	"DerivLex/internal/storage"
)

type compileCommand struct {
	Rules     string `arg:"" type:"existingfile" help:"Rule file (YAML or JSON)"`
	Output    string `short:"o" required:"" type:"path" help:"Table file to write"`
	MaxStates int    `default:"${max_states}" help:"Maximum number of DFA states"`
}

func (c *compileCommand) Run(rc *runContext) error {
	rs, err := rules.Load(c.Rules)
	if err != nil {
		return err
	}
	table, stats, err := lexer.Compile(rs, lexer.WithMaxStates(c.MaxStates), lexer.WithLogger(rc.logger))
	if err != nil {
		return err
	}
	if err := storage.WriteTableFile(c.Output, table); err != nil {
		return err
	}
	fmt.Fprintf(rc.stdout, "%s: %d rules, %d states, %d classes\n", c.Output, stats.Rules, stats.MinimizedStates, stats.Classes)
	return nil
}

type scanCommand struct {
	Rules  string   `xor:"source" required:"" type:"existingfile" help:"Rule file to compile"`
	Table  string   `xor:"source" required:"" type:"existingfile" help:"Compiled table file"`
	Input  string   `arg:"" optional:"" help:"Input file, standard input if omitted or -"`
	Format string   `enum:"text,json" default:"text" help:"Output format (text, json)"`
	Skip   bool     `help:"Skip unrecognized bytes instead of stopping"`
	Rule   []string `placeholder:"NAME" help:"Only print tokens of these rules (repeatable)"`
}

type jsonToken struct {
	Rule  string `json:"rule"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

func (c *scanCommand) Run(rc *runContext) error {
	var table *scan.Table
	var err error
	if c.Table != "" {
		table, err = storage.ReadTableFile(c.Table)
	} else {
		table, err = compileFile(c.Rules, rc)
	}
	if err != nil {
		return err
	}
	var keep []bool
	if len(c.Rule) > 0 {
		keep = make([]bool, table.NumRules())
		for _, name := range c.Rule {
			i, ok := table.RuleIndex(name)
			if !ok {
				return fmt.Errorf("unknown rule %q", name)
			}
			keep[i] = true
		}
	}

	var input []byte
	if c.Input == "" || c.Input == "-" {
		input, err = io.ReadAll(rc.stdin)
	} else {
		input, err = os.ReadFile(c.Input)
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	enc := json.NewEncoder(rc.stdout)
	s := table.Scan(input)
	for {
		tok, err := s.Next()
		if err == io.EOF {
			return nil
		}
		var uerr *scan.UnrecognizedInputError
		if errors.As(err, &uerr) && c.Skip {
			rc.logger.Warn("skipping unrecognized byte", "offset", uerr.Start)
			s.Reset(uerr.Start + 1)
			continue
		}
		if err != nil {
			return err
		}
		if keep != nil && !keep[tok.Rule] {
			continue
		}

		name := table.Rule(tok.Rule).Name
		if c.Format == "json" {
			if err := enc.Encode(jsonToken{Rule: name, Start: tok.Start, End: tok.End, Text: string(tok.Text(input))}); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(rc.stdout, "%d\t%d\t%s\t%q\n", tok.Start, tok.End, name, tok.Text(input))
	}
}

type dotCommand struct {
	Rules  string `arg:"" type:"existingfile" help:"Rule file (YAML or JSON)"`
	Output string `short:"o" type:"path" help:"File to write, standard output if omitted"`
}

func (c *dotCommand) Run(rc *runContext) error {
	rs, err := rules.Load(c.Rules)
	if err != nil {
		return err
	}
	d, err := lexer.Minimized(rs, lexer.WithLogger(rc.logger))
	if err != nil {
		return err
	}
	if c.Output == "" {
		return automaton.WriteDot(rc.stdout, d, lexer.Names(rs))
	}
	f, err := os.Create(c.Output)
	if err != nil {
		return err
	}
	if err := automaton.WriteDot(f, d, lexer.Names(rs)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type checkCommand struct {
	Rules []string `arg:"" type:"existingfile" help:"Rule files to check"`
}

func (c *checkCommand) Run(rc *runContext) error {
	failed := 0
	for _, path := range c.Rules {
		rs, err := rules.Load(path)
		if err == nil {
			var stats *lexer.Stats
			_, stats, err = lexer.Compile(rs, lexer.WithLogger(rc.logger))
			if err == nil {
				fmt.Fprintf(rc.stdout, "%s: ok, %d rules, %d states (%d before minimization), %d classes, %v\n",
					path, stats.Rules, stats.MinimizedStates, stats.States, stats.Classes, stats.Duration)
				continue
			}
		}
		failed++
		fmt.Fprintf(rc.stdout, "%s: %v\n", path, err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d rule files failed", failed, len(c.Rules))
	}
	return nil
}

func compileFile(path string, rc *runContext) (*scan.Table, error) {
	rs, err := rules.Load(path)
	if err != nil {
		return nil, err
	}
	table, _, err := lexer.Compile(rs, lexer.WithLogger(rc.logger))
	return table, err
}
