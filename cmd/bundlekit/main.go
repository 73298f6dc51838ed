package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/bundlekit/cmd/bundlekit/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Config  commands.ConfigCmd `cmd:"" help:"Print the resolved build settings"`
		Build   commands.BuildCmd  `cmd:"" help:"Bundle the project into the output directory"`
		Serve   commands.ServeCmd  `cmd:"" help:"Start the development server"`
		Debug   bool               `help:"Enable debug mode."`
		Version kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("bundlekit"),
		kong.Description("Front-end build settings and bundler for React and TypeScript projects."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
