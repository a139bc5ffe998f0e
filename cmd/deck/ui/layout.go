// Package ui layout constants for consistent spacing and dimensions
package ui

// Layout constants for the deck grid and the observatory panes
const (
	// Chrome rows around the content area
	HeaderHeight    = 1
	StatusBarHeight = 1
	FooterHeight    = 1

	// Card borders and spacing
	CardBorderWidth = 1
	CardPaddingH    = 1
	CardGutter      = 1

	// Grid dimensions
	DefaultGridColumns = 2
	MinCardWidth       = 30
	MinCardHeight      = 6

	// Observatory split
	RunListRatio    = 0.3
	SplitPaneDiv    = 1
	MinRunListWidth = 24

	// Responsive breakpoints
	MinimumTerminalWidth  = 80
	MinimumTerminalHeight = 24
	CompactModeWidth      = 100
	FullFeaturesWidth     = 120
)

// LayoutConfig provides computed layout dimensions based on terminal size
type LayoutConfig struct {
	TerminalWidth  int
	TerminalHeight int
	IsCompact      bool
	IsFullWidth    bool
}

// NewLayoutConfig creates a layout configuration for the given terminal size
func NewLayoutConfig(width, height int) LayoutConfig {
	return LayoutConfig{
		TerminalWidth:  width,
		TerminalHeight: height,
		IsCompact:      width < CompactModeWidth,
		IsFullWidth:    width >= FullFeaturesWidth,
	}
}

// ContentWidth returns the usable width between the screen edges
func (l LayoutConfig) ContentWidth() int {
	return l.TerminalWidth
}

// ContentHeight returns the rows left after header, status and footer
func (l LayoutConfig) ContentHeight() int {
	h := l.TerminalHeight - HeaderHeight - StatusBarHeight - FooterHeight
	if h < 0 {
		return 0
	}
	return h
}

// GridColumns clamps the configured column count to what fits. Compact
// terminals always collapse to a single column.
func (l LayoutConfig) GridColumns(configured int) int {
	if configured < 1 {
		configured = DefaultGridColumns
	}
	if l.IsCompact {
		return 1
	}
	max := l.ContentWidth() / (MinCardWidth + CardGutter)
	if max < 1 {
		max = 1
	}
	if configured > max {
		return max
	}
	return configured
}

// CardWidth returns the outer width of one grid card for the given
// column count, gutters included in the division.
func (l LayoutConfig) CardWidth(columns int) int {
	if columns < 1 {
		columns = 1
	}
	w := (l.ContentWidth() - CardGutter*(columns-1)) / columns
	if w < MinCardWidth {
		w = MinCardWidth
	}
	return w
}

// CardHeight returns the outer height of one grid card when rows cards
// are stacked in the content area.
func (l LayoutConfig) CardHeight(rows int) int {
	if rows < 1 {
		rows = 1
	}
	h := (l.ContentHeight() - CardGutter*(rows-1)) / rows
	if h < MinCardHeight {
		h = MinCardHeight
	}
	return h
}

// GridRows returns the row count for n cards in the given columns
func GridRows(n, columns int) int {
	if columns < 1 {
		columns = 1
	}
	return (n + columns - 1) / columns
}

// SplitPaneWidths calculates run-list and visualization widths for the
// observatory split view
func SplitPaneWidths(totalWidth int) (listWidth, vizWidth int) {
	listWidth = int(float64(totalWidth) * RunListRatio)
	if listWidth < MinRunListWidth {
		listWidth = MinRunListWidth
	}
	vizWidth = totalWidth - listWidth - SplitPaneDiv
	if vizWidth < 0 {
		vizWidth = 0
	}
	return
}

// CardContentWidth returns the content width inside a bordered card
func CardContentWidth(cardWidth int) int {
	return cardWidth - (CardBorderWidth * 2) - (CardPaddingH * 2)
}

// CardContentHeight returns the content height inside a bordered card
func CardContentHeight(cardHeight int) int {
	return cardHeight - (CardBorderWidth * 2)
}
