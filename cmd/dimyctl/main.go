// Command dimyctl is an operator utility for inspecting command scripts
// before handing them to a node, the one executable in this module with a
// real subcommand tree. adapted from
// _examples/dedis-student_18_decenar/decenarch/decenarch.go's cli.App
// wiring (ported from cli.v1 to urfave/cli/v2).
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.dedis.ch/onet/v3/log"

	"go.dedis.ch/dimy/node"
)

const version = "0.1"

func main() {
	app := &cli.App{
		Name:    "dimyctl",
		Usage:   "inspect DIMY node command scripts",
		Version: version,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "debug",
				Value: 0,
				Usage: "debug-level: 1 for terse, 5 for maximal",
			},
		},
		Before: func(c *cli.Context) error {
			log.SetDebugVisible(c.Int("debug"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "inspect-script",
				Aliases:   []string{"i"},
				Usage:     "parse a command script and print its commands",
				ArgsUsage: "<script-path>",
				Action:    cmdInspectScript,
			},
			{
				Name:   "version",
				Usage:  "print the dimyctl version",
				Action: cmdVersion,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func cmdInspectScript(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("usage: dimyctl inspect-script <script-path>", 1)
	}

	cmds, err := node.ParseScript(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("inspect-script: %v", err), 1)
	}

	for i, cmd := range cmds {
		fmt.Printf("%3d: %s\n", i, cmd.String())
	}
	return nil
}

func cmdVersion(c *cli.Context) error {
	fmt.Println("dimyctl", version)
	return nil
}
