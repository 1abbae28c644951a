package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRectGeometry(t *testing.T) {
	r := Rect{10, 20, 110, 70}
	if r.Width() != 100 || r.Height() != 50 {
		t.Errorf("Width/Height = %d/%d, want 100/50", r.Width(), r.Height())
	}
	if got := r.Translate(5, -5); got != (Rect{15, 15, 115, 65}) {
		t.Errorf("Translate() = %v", got)
	}
	if got := r.Scale(0.5, 100, 0); got != (Rect{105, 10, 155, 35}) {
		t.Errorf("Scale() = %v", got)
	}
	if !(Rect{0, 0, 0, 10}).Empty() {
		t.Error("zero-width rect should be empty")
	}
}

func TestKindNames(t *testing.T) {
	for _, k := range []Kind{KindLabel, KindField, KindLine, KindGroup, KindTable, KindMeibo, KindImage} {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, ok)
		}
	}
	if _, ok := ParseKind("SHAPE"); ok {
		t.Error("ParseKind should reject unknown names")
	}
}

func TestCloneIsDeep(t *testing.T) {
	lay := New("名票")
	lay.Paper = &PaperLayout{Mode: ModeLabelSheet, UnitMM: GeometryUnitMM, Cols: 2, Rows: 5}
	lay.Objects = []Object{
		Table{Rect: Rect{0, 0, 100, 100}, Columns: []TableColumn{{FieldID: 108, Header: "氏名"}}},
		Image{Rect: Rect{0, 0, 10, 10}, Image: EmbeddedImage{Data: []byte{1, 2, 3}}},
	}

	c := lay.Clone()
	c.Objects[0].(Table).Columns[0].Header = "changed"
	c.Objects[1].(Image).Image.Data[0] = 9
	c.Paper.Cols = 7

	if got := lay.Objects[0].(Table).Columns[0].Header; got != "氏名" {
		t.Errorf("table column shared with clone: %q", got)
	}
	if got := lay.Objects[1].(Image).Image.Data[0]; got != 1 {
		t.Errorf("image bytes shared with clone: %d", got)
	}
	if lay.Paper.Cols != 2 {
		t.Errorf("paper shared with clone: %d", lay.Paper.Cols)
	}
}

func TestTransform(t *testing.T) {
	label := Label{Rect: Rect{10, 10, 50, 30}, Text: "x", TextStyle: TextStyle{Font: FontInfo{Name: "ＭＳ 明朝", SizePt: 12}}}

	moved := label.Transform(1, 100, 200).(Label)
	if moved.Rect != (Rect{110, 210, 150, 230}) || moved.Font.SizePt != 12 {
		t.Errorf("translate = %+v", moved)
	}

	scaled := label.Transform(0.5, 0, 0).(Label)
	if scaled.Rect != (Rect{5, 5, 25, 15}) || scaled.Font.SizePt != 6 {
		t.Errorf("scale = %+v", scaled)
	}
	if label.Rect != (Rect{10, 10, 50, 30}) {
		t.Error("Transform must not modify the receiver")
	}

	line := NewLine(0, 0, 100, 0).Transform(0.5, 10, 10).(Line)
	if line.Start != (Point{10, 10}) || line.End != (Point{60, 10}) {
		t.Errorf("line = %+v", line)
	}

	tbl := Table{Columns: []TableColumn{{Width: 100}}}
	st := tbl.Transform(0.5, 0, 0).(Table)
	if st.Columns[0].Width != 50 || tbl.Columns[0].Width != 100 {
		t.Errorf("table column width scaled = %d, original = %d", st.Columns[0].Width, tbl.Columns[0].Width)
	}
}

func TestLineStroke(t *testing.T) {
	tests := []struct {
		width int
		want  int
	}{
		{0, LineWidthDefault},
		{-3, LineWidthDefault},
		{4, 4},
	}
	for _, tt := range tests {
		if got := (Line{Width: tt.width}).StrokeWidth(); got != tt.want {
			t.Errorf("StrokeWidth(%d) = %d, want %d", tt.width, got, tt.want)
		}
	}
	if b := NewLine(50, 80, 10, 20).Bounds(); b != (Rect{10, 20, 50, 80}) {
		t.Errorf("Bounds() = %v", b)
	}
}

func TestRosterSlots(t *testing.T) {
	r := Roster{Origin: Point{100, 200}, CellWidth: 50, CellHeight: 30, RowCount: 10, DataStartIndex: 2}
	if dx, dy := r.SlotOffset(3); dx != 100 || dy != 290 {
		t.Errorf("vertical SlotOffset(3) = %d,%d", dx, dy)
	}
	r.Direction = DirectionHorizontal
	if dx, dy := r.SlotOffset(3); dx != 250 || dy != 200 {
		t.Errorf("horizontal SlotOffset(3) = %d,%d", dx, dy)
	}
	if r.Capacity() != 12 {
		t.Errorf("Capacity() = %d, want 12", r.Capacity())
	}
}

func TestDetectPaper(t *testing.T) {
	tests := []struct {
		name       string
		p          PaperLayout
		wantSize   string
		wantOrient string
	}{
		{
			name:       "A4 portrait label sheet",
			p:          PaperLayout{ItemWidthMM: 86.4, ItemHeightMM: 50.8, Cols: 2, Rows: 5, MarginLeftMM: 14, MarginTopMM: 21.5, SpacingHMM: 9.2},
			wantSize:   "A4",
			wantOrient: Portrait,
		},
		{
			name:       "A4 landscape full page",
			p:          PaperLayout{ItemWidthMM: 297, ItemHeightMM: 210, Cols: 1, Rows: 1},
			wantSize:   "A4",
			wantOrient: Landscape,
		},
		{
			name:       "postcard",
			p:          PaperLayout{ItemWidthMM: 100, ItemHeightMM: 148, Cols: 1, Rows: 1},
			wantSize:   "はがき",
			wantOrient: Portrait,
		},
		{
			name: "nothing close",
			p:    PaperLayout{ItemWidthMM: 500, ItemHeightMM: 500, Cols: 1, Rows: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.p
			p.DetectPaper()
			if p.PaperSize != tt.wantSize || p.Orientation != tt.wantOrient {
				t.Errorf("DetectPaper() = %q/%q, want %q/%q", p.PaperSize, p.Orientation, tt.wantSize, tt.wantOrient)
			}
		})
	}
}

func TestPaperDimensions(t *testing.T) {
	p := PaperLayout{ItemWidthMM: 50, ItemHeightMM: 20, Cols: 3, Rows: 2, MarginLeftMM: 5, MarginTopMM: 10, SpacingHMM: 2, SpacingVMM: 4}
	if got := p.PaperWidthMM(); got != 5*2+150+4 {
		t.Errorf("PaperWidthMM() = %v", got)
	}
	if got := p.PaperHeightMM(); got != 10*2+40+4 {
		t.Errorf("PaperHeightMM() = %v", got)
	}
}

func TestUnitMM(t *testing.T) {
	lay := New("x")
	if lay.UnitMM() != ClassicUnitMM {
		t.Errorf("UnitMM() = %v, want %v", lay.UnitMM(), ClassicUnitMM)
	}
	lay.Paper = &PaperLayout{UnitMM: GeometryUnitMM}
	if lay.UnitMM() != GeometryUnitMM {
		t.Errorf("UnitMM() = %v, want %v", lay.UnitMM(), GeometryUnitMM)
	}
}

func TestUnfilled(t *testing.T) {
	lay := New("x")
	lay.Objects = []Object{
		NewLabel(Rect{}, "static", 10),
		NewField(Rect{}, 108, 10),
		Table{Columns: []TableColumn{{FieldID: 108}}},
		Table{Columns: []TableColumn{{FieldID: 108}}, Filled: true},
		Meibo{Roster: Roster{RefName: "cell"}},
	}
	if diff := cmp.Diff([]int{1, 2}, lay.Unfilled()); diff != "" {
		t.Errorf("Unfilled() mismatch (-want +got):\n%s", diff)
	}
	if lay.Count(KindTable) != 2 || len(lay.Fields()) != 1 || len(lay.Rosters()) != 1 {
		t.Error("Count/Fields/Rosters disagree with object list")
	}
}

func TestFieldDictionary(t *testing.T) {
	tests := []struct {
		id   uint32
		want string
	}{
		{108, "氏名"},
		{109, "氏名かな"},
		{603, "都道府県"},
		{610, "生年月日"},
		{400, "写真"},
		{1500, "評定1"},
		{99999, "field_99999"},
		{0, "field_0"},
	}
	for _, tt := range tests {
		if got := FieldName(tt.id); got != tt.want {
			t.Errorf("FieldName(%d) = %q, want %q", tt.id, got, tt.want)
		}
	}

	if got := DisplayName(110); got != "年度（和暦）" {
		t.Errorf("DisplayName(110) = %q", got)
	}
	if got := DisplayName(108); got != "氏名" {
		t.Errorf("DisplayName(108) = %q", got)
	}
	if id, ok := FieldID(NameGrade); !ok || id != 101 {
		t.Errorf("FieldID(学年) = %d, %v, want lowest id 101", id, ok)
	}
	if _, ok := FieldID("存在しない"); ok {
		t.Error("FieldID should fail for unknown names")
	}
	ids := FieldIDs()
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("FieldIDs() not ascending at %d", i)
		}
	}
}

func TestStyleFlags(t *testing.T) {
	for _, s := range []int{0, 2, 8} {
		if !KnownGroupStyle(s) {
			t.Errorf("KnownGroupStyle(%d) = false", s)
		}
	}
	if KnownGroupStyle(5) || KnownLabelStyle(2) {
		t.Error("unexpected style flags accepted")
	}
}
