package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashboard-builder/components/dashboard"
)

// ImportSourceInput carries an uploaded file.
type ImportSourceInput struct {
	FileName string    `json:"file_name"`
	Name     string    `json:"name"`
	Reader   io.Reader `json:"-"`
	// Result receives the registered source when set.
	Result *dashboard.DataSource `json:"-"`
}

type importService interface {
	Import(ctx context.Context, req dashboard.ImportRequest) (dashboard.DataSource, error)
}

// ImportSourceCommand parses a file into a new user data source.
type ImportSourceCommand struct {
	service   importService
	telemetry Telemetry
}

// NewImportSourceCommand builds the command.
func NewImportSourceCommand(service importService, telemetry Telemetry) *ImportSourceCommand {
	return &ImportSourceCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ImportSourceInput] = (*ImportSourceCommand)(nil)

// Execute imports the file. Parse failures leave the registry unchanged.
func (c *ImportSourceCommand) Execute(ctx context.Context, msg ImportSourceInput) error {
	if c.service == nil {
		return errors.New("import command requires service")
	}
	src, err := c.service.Import(ctx, dashboard.ImportRequest{
		FileName: msg.FileName,
		Name:     msg.Name,
		Reader:   msg.Reader,
	})
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = src
	}
	c.telemetry.Record(ctx, "dashboard.command.source_import", map[string]any{
		"source_id": src.ID,
		"rows":      len(src.Rows),
	})
	return nil
}

// RemoveSourceInput identifies a user data source.
type RemoveSourceInput struct {
	SourceID string `json:"source_id"`
}

type sourceRemover interface {
	RemoveSource(ctx context.Context, id string) bool
}

// RemoveSourceCommand deletes user data sources. Widgets bound to the
// removed source keep their binding and render as missing.
type RemoveSourceCommand struct {
	service   sourceRemover
	telemetry Telemetry
}

// NewRemoveSourceCommand builds the command.
func NewRemoveSourceCommand(service sourceRemover, telemetry Telemetry) *RemoveSourceCommand {
	return &RemoveSourceCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RemoveSourceInput] = (*RemoveSourceCommand)(nil)

// Execute removes the source. Demo sources report ErrProtectedSource.
func (c *RemoveSourceCommand) Execute(ctx context.Context, msg RemoveSourceInput) error {
	if c.service == nil {
		return errors.New("remove source command requires service")
	}
	if dashboard.IsDemoSource(msg.SourceID) {
		return fmt.Errorf("%w: %s", dashboard.ErrProtectedSource, msg.SourceID)
	}
	if !c.service.RemoveSource(ctx, msg.SourceID) {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, msg.SourceID)
	}
	c.telemetry.Record(ctx, "dashboard.command.source_remove", map[string]any{"source_id": msg.SourceID})
	return nil
}
