package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/ettle/strcase"

	"github.com/goliatone/go-dashboard-builder/components/dashboard"
	"github.com/goliatone/go-dashboard-builder/components/dashboard/commands"
	"github.com/goliatone/go-dashboard-builder/components/dashboard/queries"
)

type widgetsCmd struct {
	List    widgetsListCmd    `cmd:"" default:"1" help:"List widgets of a dashboard."`
	Catalog widgetsCatalogCmd `cmd:"" help:"List the widget types that can be added."`
	Add     widgetsAddCmd     `cmd:"" help:"Add a widget to a dashboard."`
	Update  widgetsUpdateCmd  `cmd:"" help:"Change a widget title or config."`
	Remove  widgetsRemoveCmd  `cmd:"" help:"Remove a widget."`
	Rebind  widgetsRebindCmd  `cmd:"" help:"Point a widget at another data source."`
}

// DashboardFlag selects the dashboard a widget command acts on. Empty keeps
// the persisted current dashboard.
type DashboardFlag struct {
	Dashboard string `short:"d" help:"Dashboard id (defaults to the current dashboard)."`
}

func (f DashboardFlag) use(ctx context.Context, s *session) error {
	if f.Dashboard == "" {
		return nil
	}
	return s.Handlers.SwitchDashboard.Execute(ctx, commands.SwitchDashboardInput{DashboardID: f.Dashboard})
}

type widgetsListCmd struct {
	DashboardFlag
	JSON bool `help:"Print JSON instead of a table."`
}

func (cmd *widgetsListCmd) Run(g *Globals) error {
	ctx := context.Background()
	s, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := cmd.use(ctx, s); err != nil {
		return err
	}
	widgets := s.Store.Widgets()
	if cmd.JSON {
		return printJSON(g, widgets)
	}
	tw := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tTITLE\tSOURCE\tPOSITION")
	for _, w := range widgets {
		source := ""
		if w.Config != nil {
			source = w.Config.DataSourceID()
		}
		p := w.Position
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d,%d %dx%d\n", w.ID, w.Type, w.Title, orDash(source), p.X, p.Y, p.W, p.H)
	}
	return tw.Flush()
}

type widgetsCatalogCmd struct{}

func (cmd *widgetsCatalogCmd) Run(g *Globals) error {
	ctx := context.Background()
	s, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	defs, err := s.Handlers.Catalog.Query(ctx, queries.CatalogInput{})
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tNAME\tCATEGORY\tDESCRIPTION")
	for _, def := range defs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", def.Type, def.Name, strcase.ToCase(def.Category, strcase.TitleCase, ' '), def.Description)
	}
	return tw.Flush()
}

type widgetsAddCmd struct {
	DashboardFlag
	Type   string `required:"" enum:"bar-chart,line-chart,kpi,table" help:"Widget type."`
	Title  string `help:"Widget title (defaults to the catalog title)."`
	Config string `help:"Widget config as a JSON object."`
}

func (cmd *widgetsAddCmd) Run(g *Globals) error {
	ctx := context.Background()
	s, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := cmd.use(ctx, s); err != nil {
		return err
	}
	var created dashboard.Widget
	err = s.Handlers.AddWidget.Execute(ctx, commands.AddWidgetInput{
		Type:   dashboard.WidgetType(cmd.Type),
		Title:  cmd.Title,
		Config: rawConfig(cmd.Config),
		Result: &created,
	})
	if err != nil {
		return err
	}
	g.printf("added %s %q\n", created.ID, created.Title)
	return nil
}

type widgetsUpdateCmd struct {
	DashboardFlag
	ID     string `arg:"" help:"Widget id."`
	Title  string `help:"New title."`
	Config string `help:"New config as a JSON object."`
}

func (cmd *widgetsUpdateCmd) Run(g *Globals) error {
	ctx := context.Background()
	s, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := cmd.use(ctx, s); err != nil {
		return err
	}
	var updated dashboard.Widget
	err = s.Handlers.UpdateWidget.Execute(ctx, commands.UpdateWidgetInput{
		WidgetID: cmd.ID,
		Title:    cmd.Title,
		Config:   rawConfig(cmd.Config),
		Result:   &updated,
	})
	if err != nil {
		return err
	}
	g.printf("updated %s %q\n", updated.ID, updated.Title)
	return nil
}

type widgetsRemoveCmd struct {
	DashboardFlag
	ID string `arg:"" help:"Widget id."`
}

func (cmd *widgetsRemoveCmd) Run(g *Globals) error {
	ctx := context.Background()
	s, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := cmd.use(ctx, s); err != nil {
		return err
	}
	if err := s.Handlers.RemoveWidget.Execute(ctx, commands.RemoveWidgetInput{WidgetID: cmd.ID}); err != nil {
		return err
	}
	g.printf("removed %s\n", cmd.ID)
	return nil
}

type widgetsRebindCmd struct {
	DashboardFlag
	ID     string `arg:"" help:"Widget id."`
	Source string `arg:"" help:"Data source id."`
}

func (cmd *widgetsRebindCmd) Run(g *Globals) error {
	ctx := context.Background()
	s, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := cmd.use(ctx, s); err != nil {
		return err
	}
	var rebound dashboard.Widget
	err = s.Handlers.RebindWidget.Execute(ctx, commands.RebindWidgetInput{WidgetID: cmd.ID, SourceID: cmd.Source, Result: &rebound})
	if err != nil {
		return err
	}
	g.printf("rebound %s to %s\n", rebound.ID, cmd.Source)
	return nil
}

func rawConfig(value string) json.RawMessage {
	if value == "" {
		return nil
	}
	return json.RawMessage(value)
}
