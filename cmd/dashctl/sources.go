package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/goliatone/go-dashboard-builder/components/dashboard"
	"github.com/goliatone/go-dashboard-builder/components/dashboard/commands"
	"github.com/goliatone/go-dashboard-builder/components/dashboard/queries"
	"github.com/goliatone/go-dashboard-builder/pkg/remote"
)

type sourcesCmd struct {
	List   sourcesListCmd   `cmd:"" default:"1" help:"List data sources."`
	Import sourcesImportCmd `cmd:"" help:"Import a CSV, JSON or Excel file as a data source."`
	Fetch  sourcesFetchCmd  `cmd:"" help:"Import a JSON array served over HTTP."`
	Remove sourcesRemoveCmd `cmd:"" help:"Remove a user data source."`
	Fields sourcesFieldsCmd `cmd:"" help:"List the fields a widget type may bind from a source."`
}

type sourcesListCmd struct {
	JSON bool `help:"Print JSON instead of a table."`
}

func (cmd *sourcesListCmd) Run(g *Globals) error {
	ctx := context.Background()
	s, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	sources, err := s.Handlers.Sources.Query(ctx, queries.SourcesInput{})
	if err != nil {
		return err
	}
	if cmd.JSON {
		return printJSON(g, sources)
	}
	tw := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tROWS\tFIELDS\tADDED")
	for _, src := range sources {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			src.ID, src.Name, src.Kind, humanize.Comma(int64(src.Rows)), len(src.Fields), added(src))
	}
	return tw.Flush()
}

func added(src dashboard.SourceSummary) string {
	if src.Demo || src.AddedAt.IsZero() {
		return "-"
	}
	return humanize.Time(src.AddedAt)
}

type sourcesImportCmd struct {
	File string `arg:"" type:"existingfile" help:"File to import (.csv, .json, .xlsx, .xls)."`
	Name string `help:"Source name (defaults to the file name without extension)."`
}

func (cmd *sourcesImportCmd) Run(g *Globals) error {
	ctx := context.Background()
	s, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	f, err := os.Open(cmd.File) //nolint:gosec
	if err != nil {
		return fmt.Errorf("dashctl: open %s: %w", cmd.File, err)
	}
	defer f.Close()

	var src dashboard.DataSource
	err = s.Handlers.ImportSource.Execute(ctx, commands.ImportSourceInput{
		FileName: filepath.Base(cmd.File),
		Name:     cmd.Name,
		Reader:   f,
		Result:   &src,
	})
	if err != nil {
		return err
	}
	g.printf("imported %s as %q (%s, %s rows)\n", src.ID, src.Name, src.Kind, humanize.Comma(int64(len(src.Rows))))
	return nil
}

type sourcesFetchCmd struct {
	URL    string `arg:"" help:"Endpoint returning a JSON array of objects."`
	Name   string `help:"Source name (defaults to the URL)."`
	APIKey string `name:"api-key" env:"DASHBOARD_REMOTE_API_KEY" help:"Bearer token sent with the request."`
}

func (cmd *sourcesFetchCmd) Run(g *Globals) error {
	ctx := context.Background()
	s, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	client := remote.NewClient(remote.Config{APIKey: cmd.APIKey})
	src, err := s.ImportURL(ctx, client, cmd.Name, cmd.URL)
	if err != nil {
		return err
	}
	g.printf("imported %s as %q (%s rows)\n", src.ID, src.Name, humanize.Comma(int64(len(src.Rows))))
	return nil
}

type sourcesRemoveCmd struct {
	ID string `arg:"" help:"Source id."`
}

func (cmd *sourcesRemoveCmd) Run(g *Globals) error {
	ctx := context.Background()
	s, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.Handlers.RemoveSource.Execute(ctx, commands.RemoveSourceInput{SourceID: cmd.ID}); err != nil {
		return err
	}
	g.printf("removed %s\n", cmd.ID)
	return nil
}

type sourcesFieldsCmd struct {
	ID   string `arg:"" help:"Source id."`
	Type string `default:"table" enum:"bar-chart,line-chart,kpi,table" help:"Widget type the fields are offered to."`
}

func (cmd *sourcesFieldsCmd) Run(g *Globals) error {
	ctx := context.Background()
	s, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	fields, err := s.Handlers.FieldOptions.Query(ctx, queries.FieldOptionsInput{
		Type:     dashboard.WidgetType(cmd.Type),
		SourceID: cmd.ID,
	})
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tTYPE\tLABEL")
	for _, f := range fields {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Name, f.Type, dashboard.ColumnLabel(f.Name))
	}
	return tw.Flush()
}

func printJSON(g *Globals, v any) error {
	enc := json.NewEncoder(g.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}
