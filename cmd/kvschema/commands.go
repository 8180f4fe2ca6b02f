package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli"
	"go.uber.org/multierr"

	"github.com/S0me0neR0man/kvschema/internal/entry"
	"github.com/S0me0neR0man/kvschema/internal/kv"
	"github.com/S0me0neR0man/kvschema/internal/schema"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func getData(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.ShowCommandHelp(c, c.Command.Name)
	}
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	out := make(map[string]any, c.NArg())
	for _, name := range c.Args() {
		v, err := s.orch.GetData(s.ctx, name)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		out[name] = render(v)
	}
	return printJSON(out)
}

func getAllData(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	data, err := s.orch.GetAllData(s.ctx)
	out := make(map[string]any, len(data))
	for name, v := range data {
		out[name] = render(v)
	}
	if perr := printJSON(out); perr != nil {
		return multierr.Append(err, perr)
	}
	// partial results are still printed
	return err
}

// entryFor the schema entry called name, loaded from the configured schema file
func entryFor(c *cli.Context, name string) (schema.Entry, error) {
	conf, err := loadConfig(c)
	if err != nil {
		return schema.Entry{}, err
	}
	s, err := loadSchema(conf)
	if err != nil {
		return schema.Entry{}, err
	}
	return s.Resolve(name)
}

func encodeValue(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.ShowCommandHelp(c, c.Command.Name)
	}
	e, err := entryFor(c, c.Args().Get(0))
	if err != nil {
		return err
	}
	v, err := parseValue(e, c.Args().Get(1))
	if err != nil {
		return err
	}
	pairs, err := entry.EncodeKeyValue(e, v)
	if err != nil {
		return err
	}

	out := make([]map[string]string, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, map[string]string{"key": p.Key.String(), "value": kv.EncodeHex(p.Value)})
	}
	return printJSON(out)
}

func decodeValue(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.ShowCommandHelp(c, c.Command.Name)
	}
	e, err := entryFor(c, c.Args().First())
	if err != nil {
		return err
	}
	values := make([][]byte, 0, c.NArg()-1)
	for _, h := range c.Args().Tail() {
		b, err := kv.DecodeHex(h)
		if err != nil {
			return fmt.Errorf("%s: %w", h, err)
		}
		values = append(values, b)
	}
	v, err := entry.DecodeKeyValue(e, values...)
	if err != nil {
		return err
	}
	return printJSON(render(v))
}

func printKey(c *cli.Context) error {
	if c.NArg() < 1 || c.NArg() > 2 {
		return cli.ShowCommandHelp(c, c.Command.Name)
	}
	e, err := entryFor(c, c.Args().First())
	if err != nil {
		return err
	}
	if c.NArg() == 1 {
		fmt.Println(e.Key)
		return nil
	}
	i, err := strconv.ParseUint(c.Args().Get(1), 10, 64)
	if err != nil || i == 0 {
		return fmt.Errorf("index must be a positive integer: %s", c.Args().Get(1))
	}
	fmt.Println(e.Key.Element(i))
	return nil
}
