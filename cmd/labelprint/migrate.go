package main

import (
	"go-label-printer/internal/models"
	"go-label-printer/internal/services"

	"github.com/spf13/cobra"
)

func newMigrateCommand(load func() (*app, error)) *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.db.Migrate(); err != nil {
				return err
			}
			a.logger.LogSystemEvent("schema_migrated")

			if !seed {
				return nil
			}
			symbology, err := models.ParseSymbology(a.cfg.Label.DefaultSymbology)
			if err != nil {
				return err
			}
			svc := services.NewLabelPrintService(a.db, a.barcodeService(), a.logger)
			tmpl, created, err := svc.EnsureDefaultTemplate(a.cfg.Label.DefaultTemplateName, symbology)
			if err != nil {
				return err
			}
			if created {
				cmd.Printf("created default template %q (id %d)\n", tmpl.Name, tmpl.LabelTemplateID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", true, "create a default label template when none exists")
	return cmd
}
