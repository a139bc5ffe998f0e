package ui

import "testing"

func TestNewLayoutConfigBreakpoints(t *testing.T) {
	narrow := NewLayoutConfig(90, 30)
	if !narrow.IsCompact {
		t.Errorf("90 cols should be compact")
	}
	if narrow.IsFullWidth {
		t.Errorf("90 cols should not be full width")
	}

	wide := NewLayoutConfig(140, 40)
	if wide.IsCompact {
		t.Errorf("140 cols should not be compact")
	}
	if !wide.IsFullWidth {
		t.Errorf("140 cols should be full width")
	}
}

func TestContentHeightAccountsForChrome(t *testing.T) {
	l := NewLayoutConfig(120, 30)
	want := 30 - HeaderHeight - StatusBarHeight - FooterHeight
	if got := l.ContentHeight(); got != want {
		t.Errorf("ContentHeight() = %d, want %d", got, want)
	}

	tiny := NewLayoutConfig(120, 2)
	if got := tiny.ContentHeight(); got != 0 {
		t.Errorf("ContentHeight() on a 2-row terminal = %d, want 0", got)
	}
}

func TestGridColumns(t *testing.T) {
	compact := NewLayoutConfig(90, 30)
	if got := compact.GridColumns(3); got != 1 {
		t.Errorf("compact terminals collapse to one column, got %d", got)
	}

	wide := NewLayoutConfig(200, 40)
	if got := wide.GridColumns(3); got != 3 {
		t.Errorf("GridColumns(3) on 200 cols = %d, want 3", got)
	}

	// Requesting more columns than fit clamps to what does.
	if got := wide.GridColumns(10); got > 200/(MinCardWidth+CardGutter) {
		t.Errorf("GridColumns(10) = %d, exceeds what fits", got)
	}

	if got := wide.GridColumns(0); got != DefaultGridColumns {
		t.Errorf("GridColumns(0) = %d, want default %d", got, DefaultGridColumns)
	}
}

func TestCardWidthFloor(t *testing.T) {
	l := NewLayoutConfig(120, 40)
	if got := l.CardWidth(2); got < MinCardWidth {
		t.Errorf("CardWidth(2) = %d, below floor %d", got, MinCardWidth)
	}
	// Two cards plus the gutter should not exceed the content width.
	if got := l.CardWidth(2); got*2+CardGutter > l.ContentWidth() {
		t.Errorf("two cards of width %d overflow %d cols", got, l.ContentWidth())
	}
}

func TestGridRows(t *testing.T) {
	cases := []struct {
		n, cols, want int
	}{
		{7, 2, 4},
		{7, 1, 7},
		{6, 3, 2},
		{1, 2, 1},
		{0, 2, 0},
	}
	for _, tc := range cases {
		if got := GridRows(tc.n, tc.cols); got != tc.want {
			t.Errorf("GridRows(%d, %d) = %d, want %d", tc.n, tc.cols, got, tc.want)
		}
	}
}

func TestSplitPaneWidths(t *testing.T) {
	list, viz := SplitPaneWidths(120)
	if list+viz+SplitPaneDiv != 120 {
		t.Errorf("panes %d + %d + divider != 120", list, viz)
	}
	if list < MinRunListWidth {
		t.Errorf("run list width %d below floor %d", list, MinRunListWidth)
	}

	// Narrow totals keep the run list usable at the viz pane's expense.
	list, _ = SplitPaneWidths(60)
	if list < MinRunListWidth {
		t.Errorf("narrow split run list width = %d, want >= %d", list, MinRunListWidth)
	}
}

func TestCardContentDims(t *testing.T) {
	if got := CardContentWidth(30); got != 30-2*CardBorderWidth-2*CardPaddingH {
		t.Errorf("CardContentWidth(30) = %d", got)
	}
	if got := CardContentHeight(8); got != 8-2*CardBorderWidth {
		t.Errorf("CardContentHeight(8) = %d", got)
	}
}
