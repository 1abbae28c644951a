package fill

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/meibo/pkg/errors"
	"github.com/matzehuels/meibo/pkg/layout"
	"github.com/matzehuels/meibo/pkg/photo"
)

func rect(l, t, r, b int) layout.Rect { return layout.Rect{Left: l, Top: t, Right: r, Bottom: b} }

func field(id uint32) layout.Field { return layout.NewField(rect(0, 0, 200, 40), id, 10) }

func labels(lay *layout.LayFile) []string {
	var out []string
	for _, o := range lay.Objects {
		if l, ok := o.(layout.Label); ok {
			out = append(out, l.Text)
		}
	}
	return out
}

func TestFillUnknownFieldIsBlank(t *testing.T) {
	lay := layout.New("t")
	lay.Objects = []layout.Object{field(99999)}
	report := NewReport(nil)

	got := Fill(lay, Record{}, Options{Report: report})

	l, ok := got.Objects[0].(layout.Label)
	if !ok {
		t.Fatalf("object is %T, want Label", got.Objects[0])
	}
	if l.Text != "" {
		t.Errorf("Text = %q, want empty", l.Text)
	}
	if report.Count(errors.ErrCodeData) != 1 {
		t.Errorf("issues = %+v, want one DATA_ERROR", report.Issues())
	}
	if got := report.Issues()[0].Field; got != "field_99999" {
		t.Errorf("issue field = %q", got)
	}
}

func TestFillDoesNotMutateInput(t *testing.T) {
	f := field(108)
	f.Prefix, f.Suffix = "【", "】"
	tbl := layout.Table{Rect: rect(0, 100, 400, 300), Columns: []layout.TableColumn{{FieldID: 106, Header: "番号"}}}
	lay := layout.New("t")
	lay.Objects = []layout.Object{f, tbl}
	before := lay.Clone()

	got := Fill(lay, Record{"氏名": "山田太郎", "出席番号": 3.0}, Options{})

	if diff := cmp.Diff(before, lay); diff != "" {
		t.Errorf("input mutated (-before +after):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"【山田太郎】"}, labels(got)); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	l := got.Objects[0].(layout.Label)
	if l.Prefix != "" || l.Suffix != "" {
		t.Errorf("prefix/suffix should be folded into text, got %q/%q", l.Prefix, l.Suffix)
	}
	ft := got.Objects[1].(layout.Table)
	if !ft.Filled || ft.Columns[0].Value != "3" || ft.Columns[0].Header != "番号" {
		t.Errorf("table = %+v", ft)
	}
	if len(got.Unfilled()) != 0 {
		t.Errorf("Unfilled() = %v after fill", got.Unfilled())
	}
}

func TestFillIsIdempotent(t *testing.T) {
	lay := layout.New("t")
	lay.Objects = []layout.Object{
		field(108),
		layout.NewLabel(rect(0, 50, 100, 80), "{{氏名}}", 10),
		layout.NewLine(0, 0, 100, 0),
		layout.Table{Columns: []layout.TableColumn{{FieldID: 108}}},
	}
	rec := Record{"氏名": "佐藤"}

	once := Fill(lay, rec, Options{})
	twice := Fill(once, rec, Options{})
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second fill changed the layout (-once +twice):\n%s", diff)
	}
}

func TestResolve(t *testing.T) {
	rec := Record{
		"氏名":      "山田 太郎",
		"氏名かな":    "やまだ たろう",
		"正式氏名":    "山田 太郎",
		"正式氏名かな":  "やまだ たろう",
		"生年月日":    "2015-06-03 00:00:00",
		"入学日":     "45383.0",
		"転入日":     "不明",
		"都道府県":    "沖縄県",
		"市区町村":    "那覇市",
		"町番地":     "天久1-2-3",
		"建物名":     "nan",
		"保護者都道府県": "沖縄県",
		"保護者市区町村": "那覇市",
		"保護者町番地":  "天久1-2-3",
		"性別":      nil,
	}
	opts := Options{
		FiscalYear:  2025,
		SchoolName:  "那覇小学校",
		TeacherName: "比嘉",
		Page:        2,
		Total:       31,
		RowNumber:   7,
	}

	tests := []struct {
		name string
		mode string
		want string
	}{
		{layout.NameFiscalYear, "", "2025"},
		{layout.NameFiscalYearEra, "", "令和7年度"},
		{layout.NameSchool, "", "那覇小学校"},
		{layout.NameTeacher, "", "比嘉"},
		{layout.NameAddress, "", "沖縄県那覇市天久1-2-3"},
		{layout.NameGuardianAddr, "", "同上"},
		{layout.NamePage, "", "2"},
		{layout.NameTotal, "", "31"},
		{layout.NameRowNumber, "", "7"},
		{layout.NameBirthDate, "", "15/06/03"},
		{layout.NameEnrollmentDate, "", "24/04/01"},
		{layout.NameTransferIn, "", "不明"},
		{layout.NameSex, "", ""},
		{layout.NameFullName, NameDisplayFurigana, "山田 太郎"},
		{layout.NameFullNameKana, NameDisplayFurigana, "やまだ たろう"},
		{layout.NameFullName, NameDisplayKanji, "山田 太郎"},
		{layout.NameFullNameKana, NameDisplayKanji, ""},
		{layout.NameFullName, NameDisplayKana, "やまだ たろう"},
		{layout.NameLegalName, NameDisplayKana, "やまだ たろう"},
		{layout.NameLegalNameKana, NameDisplayKana, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.mode, func(t *testing.T) {
			o := opts
			o.NameDisplay = tt.mode
			f := newFiller(rec, o)
			if got := f.resolve(tt.name); got != tt.want {
				t.Errorf("resolve(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestResolvePseudoFieldsFallBackToRecord(t *testing.T) {
	f := newFiller(Record{"学校名": "記録校", "年度": "2024", "行番号": "12"}, Options{RowNumber: 3})
	for name, want := range map[string]string{
		layout.NameSchool:     "記録校",
		layout.NameFiscalYear: "2024",
		layout.NameRowNumber:  "12",
	} {
		if got := f.resolve(name); got != want {
			t.Errorf("resolve(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestGaijiForcesFallbackFont(t *testing.T) {
	lay := layout.New("t")
	f := field(108)
	f.Font.Name = "ＭＳ 明朝"
	f.Font.Bold = true
	lay.Objects = []layout.Object{f, f}

	got := Fill(lay, Record{"氏名": "𠮷田"}, Options{})
	l := got.Objects[0].(layout.Label)
	if l.Font.Name != layout.FallbackFontName || !l.Font.Bold || l.Font.SizePt != 10 {
		t.Errorf("font = %+v, want fallback font keeping bold and size", l.Font)
	}

	got = Fill(lay, Record{"氏名": "吉田"}, Options{})
	if name := got.Objects[0].(layout.Label).Font.Name; name != "ＭＳ 明朝" {
		t.Errorf("font = %q, plain text should keep the layout font", name)
	}
}

func TestNeedsFallbackFont(t *testing.T) {
	tests := map[string]bool{
		"":             false,
		"山田":           false,
		"葛\U000E0100城": true,
		"𠮷":            true,
		"ABC":          false,
	}
	for s, want := range tests {
		if got := NeedsFallbackFont(s); got != want {
			t.Errorf("NeedsFallbackFont(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestFillPhoto(t *testing.T) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.New(40, 40, color.White), imaging.PNG); err != nil {
		t.Fatal(err)
	}
	src := photo.MapSource{
		"1-2-03": buf.Bytes(),
		"鈴木一郎":   []byte("corrupt"),
	}
	lay := layout.New("t")
	ph := layout.NewField(rect(0, 0, 300, 400), layout.FieldPhoto, 10)
	lay.Objects = []layout.Object{ph}

	tests := []struct {
		name      string
		rec       Record
		wantImage bool
		wantCode  errors.Code
	}{
		{"number match", Record{"学年": "1", "組": "2", "出席番号": "3"}, true, ""},
		{"corrupt bytes", Record{"氏名": "鈴木 一郎"}, false, errors.ErrCodeResource},
		{"no match", Record{"氏名": "誰か"}, false, errors.ErrCodeData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := NewReport(nil)
			got := Fill(lay, tt.rec, Options{Photos: src, Report: report})
			_, isImage := got.Objects[0].(layout.Image)
			if isImage != tt.wantImage {
				t.Fatalf("object is %T", got.Objects[0])
			}
			if !isImage {
				if l := got.Objects[0].(layout.Label); l.Text != "" {
					t.Errorf("blank photo should have empty text, got %q", l.Text)
				}
			}
			if tt.wantCode != "" && report.Count(tt.wantCode) != 1 {
				t.Errorf("issues = %+v, want one %s", report.Issues(), tt.wantCode)
			}
		})
	}

	got := Fill(lay, Record{}, Options{})
	if _, ok := got.Objects[0].(layout.Label); !ok {
		t.Errorf("no photo source should leave a blank label, got %T", got.Objects[0])
	}
}

func TestFormatDate(t *testing.T) {
	tests := map[string]string{
		"2018-06-15":          "18/06/15",
		"2018/6/5":            "18/06/05",
		"2018-06-15 00:00:00": "18/06/15",
		"43266.0":             "18/06/15",
		"43266":               "18/06/15",
		"1":                   "1",
		"平成30年":               "平成30年",
		"":                    "",
	}
	for in, want := range tests {
		if got := FormatDate(in); got != want {
			t.Errorf("FormatDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWareki(t *testing.T) {
	tests := []struct {
		y, m, d int
		want    string
	}{
		{2025, 1, 1, "令和7年"},
		{2019, 5, 1, "令和元年"},
		{2019, 4, 30, "平成31年"},
		{1989, 1, 8, "平成元年"},
		{1989, 1, 7, "昭和64年"},
		{1926, 12, 25, "昭和元年"},
		{1912, 7, 30, "大正元年"},
		{1868, 1, 25, "明治元年"},
		{1868, 1, 24, "西暦1868年"},
	}
	for _, tt := range tests {
		if got := Wareki(tt.y, tt.m, tt.d); got != tt.want {
			t.Errorf("Wareki(%d,%d,%d) = %q, want %q", tt.y, tt.m, tt.d, got, tt.want)
		}
	}
	if got := FiscalYearWareki(2019); got != "平成31年度" {
		t.Errorf("FiscalYearWareki(2019) = %q", got)
	}
	if got := FiscalYearWareki(2020); got != "令和2年度" {
		t.Errorf("FiscalYearWareki(2020) = %q", got)
	}
}

func TestGuardianAddress(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{"single field", Record{"保護者住所": "東京都港区1-1"}, "東京都港区1-1"},
		{"parts", Record{"保護者都道府県": "東京都", "保護者市区町村": "港区", "都道府県": "沖縄県"}, "東京都港区"},
		{"same as student", Record{"保護者都道府県": "沖縄県", "都道府県": "沖縄県"}, SameAddress},
		{"empty", Record{"都道府県": "沖縄県"}, ""},
		{"nan single falls back", Record{"保護者住所": "NaN", "保護者市区町村": "港区"}, "港区"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GuardianAddress(tt.rec); got != tt.want {
				t.Errorf("GuardianAddress = %q, want %q", got, tt.want)
			}
		})
	}
}
