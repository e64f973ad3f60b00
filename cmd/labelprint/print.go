package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go-label-printer/internal/services"

	"github.com/spf13/cobra"
)

type printOptions struct {
	templateID  uint
	pricelistID uint
	lines       []string
	format      string
	out         string
}

func newPrintCommand(load func() (*app, error)) *cobra.Command {
	opts := &printOptions{}

	cmd := &cobra.Command{
		Use:   "print",
		Short: "Build a label sheet from the command line",
		Example: `  labelprint print --line 12:3 --line 14:1:7 --format pdf --out labels.pdf
  labelprint print --template 2 --pricelist 1 --line 12:10 --format html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request()
			if err != nil {
				return err
			}
			a, err := load()
			if err != nil {
				return err
			}
			defer a.Close()
			return a.print(cmd.Context(), req, opts)
		},
	}

	cmd.Flags().UintVar(&opts.templateID, "template", 0, "label template id (default template when omitted)")
	cmd.Flags().UintVar(&opts.pricelistID, "pricelist", 0, "pricelist id (list prices when omitted)")
	cmd.Flags().StringArrayVar(&opts.lines, "line", nil, "label line as product:quantity[:lot], repeatable")
	cmd.Flags().StringVar(&opts.format, "format", "pdf", "output format: pdf or html")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file (stdout when omitted)")
	_ = cmd.MarkFlagRequired("line")
	return cmd
}

func (o *printOptions) request() (services.PrintJobRequest, error) {
	var req services.PrintJobRequest
	if o.format != "pdf" && o.format != "html" {
		return req, fmt.Errorf("unknown format %q", o.format)
	}
	if o.templateID != 0 {
		id := o.templateID
		req.TemplateID = &id
	}
	if o.pricelistID != 0 {
		id := o.pricelistID
		req.PricelistID = &id
	}
	for _, raw := range o.lines {
		line, err := parseLine(raw)
		if err != nil {
			return req, err
		}
		req.Lines = append(req.Lines, line)
	}
	return req, nil
}

// parseLine reads product:quantity[:lot].
func parseLine(raw string) (services.PrintJobLine, error) {
	var line services.PrintJobLine
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return line, fmt.Errorf("line %q: expected product:quantity[:lot]", raw)
	}

	product, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil || product == 0 {
		return line, fmt.Errorf("line %q: invalid product id", raw)
	}
	qty, err := strconv.Atoi(parts[1])
	if err != nil {
		return line, fmt.Errorf("line %q: invalid quantity", raw)
	}
	line.ProductID = uint(product)
	line.Quantity = qty

	if len(parts) == 3 {
		lot, err := strconv.ParseUint(parts[2], 10, 32)
		if err != nil || lot == 0 {
			return line, fmt.Errorf("line %q: invalid lot id", raw)
		}
		lotID := uint(lot)
		line.LotID = &lotID
	}
	return line, nil
}

func (a *app) print(ctx context.Context, req services.PrintJobRequest, opts *printOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sheets, err := services.NewLabelSheetService(a.cfg.PDF, a.cfg.Label)
	if err != nil {
		return err
	}

	result, err := services.NewLabelPrintService(a.db, a.barcodeService(), a.logger).Print(ctx, req)
	if err != nil {
		return err
	}

	var output []byte
	if opts.format == "html" {
		output, err = sheets.RenderHTML(result.Template, result.Records)
	} else {
		output, err = sheets.RenderPDF(result.Template, result.Records)
	}
	if err != nil {
		return err
	}

	if opts.out == "" {
		_, err = os.Stdout.Write(output)
		return err
	}
	if err := os.WriteFile(opts.out, output, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.out, err)
	}
	fmt.Fprintf(os.Stderr, "job %s: %d labels written to %s\n", result.JobID, len(result.Records), opts.out)
	return nil
}
