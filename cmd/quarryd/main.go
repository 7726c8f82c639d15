package main

import (
	"log"
	"os"

	"github.com/alecthomas/kong"
	konghcl "github.com/alecthomas/kong-hcl/v2"

	"github.com/quarrydb/quarry/conf"
	"github.com/quarrydb/quarry/errors"
	plog "github.com/quarrydb/quarry/log"
	"github.com/quarrydb/quarry/server"
)

type arguments struct {
	Config kong.ConfigFlag `help:"Path to config file" type:"existingfile" required:""`
	Log    plog.Config     `help:"Configuration for the logger" embed:"" prefix:"log-"`
	Server conf.Config     `help:"Quarry server configuration" embed:"" prefix:""`
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
	select {} // prevent main exiting
}

func run(args []string) error {
	cfg := arguments{}
	parser, err := kong.New(&cfg, kong.Configuration(konghcl.Loader))
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = parser.Parse(args)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := cfg.Log.Configure(); err != nil {
		return err
	}
	if err := cfg.Server.Validate(); err != nil {
		return err
	}
	s, err := server.NewServer(cfg.Server)
	if err != nil {
		return err
	}
	return s.Start()
}
