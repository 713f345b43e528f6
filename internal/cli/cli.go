package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Status  *StatusCommand
	Search  *SearchCommand
	Add     *AddCommand
	Resolve *ResolveCommand
	Serve   *ServeCommand
	Prune   *PruneCommand
	Purge   *PurgeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "visited"
	parser.LongDescription = "Local browsing-history index that tells a browser extension which links were already visited."

	cmds := &commands{
		Status:  &StatusCommand{globals: &globals, version: version},
		Search:  &SearchCommand{globals: &globals, version: version},
		Add:     &AddCommand{globals: &globals, version: version},
		Resolve: &ResolveCommand{globals: &globals, version: version},
		Serve:   &ServeCommand{globals: &globals, version: version},
		Prune:   &PruneCommand{globals: &globals, version: version},
		Purge:   &PurgeCommand{globals: &globals, version: version},
	}

	parser.AddCommand("status", "Show history and resolver statistics", "Show database statistics, cache size, average resolution time and daemon state.", cmds.Status)
	parser.AddCommand("search", "Search visited pages", "Search visited pages by URL or title substring, with optional filters.", cmds.Search)
	parser.AddCommand("add", "Record a visit", "Record a visit to a URL in the history index.", cmds.Add)
	parser.AddCommand("resolve", "Resolve visit state of URLs", "Resolve the last visit time and visit count of each given URL.", cmds.Resolve)
	parser.AddCommand("serve", "Start the visited daemon", "Start the visited daemon (local HTTP message endpoint).", cmds.Serve)
	parser.AddCommand("prune", "Apply retention pruning", "Remove visits older than the retention period.", cmds.Prune)
	parser.AddCommand("purge", "Delete ALL visited data", "Delete ALL history and statistics. Destructive operation with safety prompt.", cmds.Purge)

	return parser, &globals, cmds
}

// Run is the main entry point for the visited CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("visited %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
