package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/vidscribe/app"
	"github.com/kbukum/vidscribe/bootstrap"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}

			a, err := bootstrap.NewApp(cfg)
			if err != nil {
				return err
			}
			svc, err := app.Build(cfg, a.Logger)
			if err != nil {
				return err
			}
			if err := svc.Register(a); err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
}
