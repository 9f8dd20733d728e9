package dashboard

import "context"

// Minimum grid span reported to the grid collaborator.
const (
	LayoutMinW = 2
	LayoutMinH = 2
)

// LayoutItem is the grid collaborator's description of one widget cell.
type LayoutItem struct {
	I    string `json:"i"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	W    int    `json:"w"`
	H    int    `json:"h"`
	MinW int    `json:"minW"`
	MinH int    `json:"minH"`
}

// Position returns the grid position carried by the item.
func (item LayoutItem) Position() WidgetPosition {
	return WidgetPosition{X: item.X, Y: item.Y, W: item.W, H: item.H}
}

// PositionUpdater applies a position to a widget by id.
type PositionUpdater interface {
	UpdateWidgetPosition(ctx context.Context, id string, position WidgetPosition) bool
}

// ToLayoutItems describes widgets for the grid collaborator, preserving
// widget order.
func ToLayoutItems(widgets []Widget) []LayoutItem {
	items := make([]LayoutItem, len(widgets))
	for i, w := range widgets {
		items[i] = LayoutItem{
			I:    w.ID,
			X:    w.Position.X,
			Y:    w.Position.Y,
			W:    w.Position.W,
			H:    w.Position.H,
			MinW: LayoutMinW,
			MinH: LayoutMinH,
		}
	}
	return items
}

// ApplyLayoutChange forwards each reported cell to the updater and returns
// how many items matched a widget.
func ApplyLayoutChange(ctx context.Context, updater PositionUpdater, items []LayoutItem) int {
	if updater == nil {
		return 0
	}
	applied := 0
	for _, item := range items {
		if updater.UpdateWidgetPosition(ctx, item.I, item.Position()) {
			applied++
		}
	}
	return applied
}
