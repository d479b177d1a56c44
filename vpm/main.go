// Command vpm manages a portfolio of holdings from the command line.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/venturetk/VenturePortfolio/cmd"
)

func main() {
	// Answers shell completion requests and exits, a no-op otherwise.
	cmd.Completion().Complete("vpm")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()

	if sub := flag.Arg(0); sub != "" && !cmd.Known(sub) && !isBuiltin(sub) {
		if found, code := cmd.RunExtension(sub, flag.Args()[1:]); found {
			os.Exit(code)
		}
	}
	os.Exit(int(commander.Execute(context.Background())))
}

func isBuiltin(name string) bool {
	return name == "help" || name == "flags" || name == "commands"
}
