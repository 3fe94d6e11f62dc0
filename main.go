/*
gridmdp solves small grid-world Markov decision processes: it evaluates a fixed policy, runs
value iteration to a greedy policy, or plays noisy episodes of a policy, printing every value
and policy snapshot as text. The serve command accepts problem files over http and replays the
sweeps of each run to a browser over a websocket.
*/

package main

import (
	"gridmdp/commands"
	"gridmdp/logs"
)

func main() {
	// rootCommand parses the persistent flags and dispatches to a subcommand
	rootCommand := commands.GetRootCommand()
	if err := rootCommand.Execute(); err != nil {
		logs.Fatal("%v", err)
	}
}
