// Command derivlex compiles lexer rule files into scanner tables and runs
// them.
//
//	derivlex compile rules.yaml -o lexer.dlxt
//	derivlex scan --table lexer.dlxt input.txt
//	derivlex dot rules.yaml | dot -Tsvg > lexer.svg
//	derivlex check rules.yaml
package main

import (
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/alecthomas/kong"

	"DerivLex/internal/automaton"
)

// Version is set at build time via -ldflags.
var Version = "dev"

type CLI struct {
	LogLevel string           `help:"Log level" enum:"debug,info,warn,error" default:"warn" env:"DERIVLEX_LOG_LEVEL"`
	Version  kong.VersionFlag `help:"Print the version and exit"`

	Compile compileCommand `cmd:"" help:"Compile a rule file into a table file"`
	Scan    scanCommand    `cmd:"" help:"Print the tokens of an input file"`
	Dot     dotCommand     `cmd:"" help:"Print the minimized DFA of a rule file in Graphviz format"`
	Check   checkCommand   `cmd:"" help:"Compile a rule file and print statistics"`
}

// runContext is bound into every command's Run method.
type runContext struct {
	stdin  io.Reader
	stdout io.Writer
	logger *slog.Logger
}

func newParser(cli *CLI, opts ...kong.Option) (*kong.Kong, error) {
	opts = append([]kong.Option{
		kong.Name("derivlex"),
		kong.Description("Compile lexer rules to DFAs using regular expression derivatives."),
		kong.UsageOnError(),
		kong.Vars{
			"version":    Version,
			"max_states": strconv.Itoa(automaton.MaxDFAStates),
		},
	}, opts...)
	return kong.New(cli, opts...)
}

func main() {
	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		panic(err)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cli.LogLevel),
	}))
	err = kctx.Run(&runContext{stdin: os.Stdin, stdout: os.Stdout, logger: logger})
	kctx.FatalIfErrorf(err)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
