package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "kvschema"
	app.Usage = "Read, encode and decode schema-described contract storage"
	app.Flags = []cli.Flag{
		configurationFile,
		schemaFile,
		transport,
		endpoint,
		address,
		bearerToken,
		timeout,
		maxArrayLength,
		debug,
	}
	app.Commands = []cli.Command{
		{
			Name:      "get",
			Usage:     "Fetch and decode the named entries",
			ArgsUsage: "NAME...",
			Action:    getData,
		},
		{
			Name:   "getall",
			Usage:  "Fetch and decode every schema entry",
			Action: getAllData,
		},
		{
			Name:      "encode",
			Usage:     "Encode a value of an entry into key/value pairs, arrays as a JSON list",
			ArgsUsage: "NAME VALUE",
			Action:    encodeValue,
		},
		{
			Name:      "decode",
			Usage:     "Decode raw hex values of an entry, for arrays the count value first",
			ArgsUsage: "NAME HEX...",
			Action:    decodeValue,
		},
		{
			Name:      "key",
			Usage:     "Print the storage key of an entry, or of its INDEX-th element",
			ArgsUsage: "NAME [INDEX]",
			Action:    printKey,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
