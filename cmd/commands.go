package cmd

import "github.com/google/subcommands"

// Commands lists every subcommand in display order. A main package
// registers them all on its commander.
var Commands = []subcommands.Command{
	&initCmd{},
	&newCmd{},
	&deleteFundCmd{},
	&fundsCmd{},

	&depositCmd{},
	&withdrawCmd{},
	&eventsCmd{},
	&editEventCmd{},
	&rmEventCmd{},

	&buyCmd{},
	&sellCmd{},
	&txCmd{},
	&editCmd{},
	&rmCmd{},

	&trackCmd{},
	&untrackCmd{},

	&summaryCmd{},
	&dashboardCmd{},

	&exportCmd{},
	&importCmd{},

	&serveCmd{},
	&topicCmd{},
}
