package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/goliatone/go-dashboard-builder/components/dashboard"
	"github.com/goliatone/go-dashboard-builder/components/dashboard/commands"
)

type dashboardsCmd struct {
	List   dashboardsListCmd   `cmd:"" default:"1" help:"List dashboards."`
	Create dashboardsCreateCmd `cmd:"" help:"Create an empty dashboard and make it current."`
	Export dashboardsExportCmd `cmd:"" help:"Write every dashboard as a YAML manifest."`
	Apply  dashboardsApplyCmd  `cmd:"" help:"Create the dashboards described by a manifest."`
}

type dashboardsListCmd struct{}

func (cmd *dashboardsListCmd) Run(g *Globals) error {
	ctx := context.Background()
	s, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	current := s.Store.CurrentDashboard()
	tw := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tWIDGETS\tCURRENT")
	for _, d := range s.Store.Dashboards() {
		mark := ""
		if d.ID == current.ID {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", d.ID, d.Name, len(d.Widgets), mark)
	}
	return tw.Flush()
}

type dashboardsCreateCmd struct {
	Name string `arg:"" help:"Dashboard name."`
}

func (cmd *dashboardsCreateCmd) Run(g *Globals) error {
	ctx := context.Background()
	s, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	var created dashboard.Dashboard
	if err := s.Handlers.CreateDashboard.Execute(ctx, commands.CreateDashboardInput{Name: cmd.Name, Result: &created}); err != nil {
		return err
	}
	g.printf("created %s %q\n", created.ID, created.Name)
	return nil
}

type dashboardsExportCmd struct {
	Out string `short:"o" type:"path" help:"Output file (defaults to stdout)."`
}

func (cmd *dashboardsExportCmd) Run(g *Globals) error {
	ctx := context.Background()
	s, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	doc := dashboard.ExportManifest(s.Store)
	if cmd.Out == "" {
		return dashboard.EncodeManifest(g.Out, doc)
	}
	f, err := os.Create(cmd.Out) //nolint:gosec
	if err != nil {
		return fmt.Errorf("dashctl: create %s: %w", cmd.Out, err)
	}
	if err := dashboard.EncodeManifest(f, doc); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	g.printf("exported %d dashboards to %s\n", len(doc.Dashboards), cmd.Out)
	return nil
}

type dashboardsApplyCmd struct {
	Manifest string `arg:"" type:"existingfile" help:"Manifest YAML file."`
	Force    bool   `help:"Apply even when dashboards were already persisted."`
}

func (cmd *dashboardsApplyCmd) Run(g *Globals) error {
	ctx := context.Background()
	s, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	before := len(s.Store.Dashboards())
	if err := s.Seed(ctx, cmd.Manifest, cmd.Force); err != nil {
		return err
	}
	added := len(s.Store.Dashboards()) - before
	if added == 0 {
		g.printf("nothing applied: dashboards already persisted (use --force)\n")
		return nil
	}
	g.printf("applied %d dashboards from %s\n", added, cmd.Manifest)
	return nil
}
