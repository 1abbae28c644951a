// Package fonts resolves layout font names to glyph faces.
//
// Layouts only carry font names such as "ＭＳ 明朝" or "IPAmj明朝". A
// [Resolver] maps those names to font files, parses each file once and hands
// out sized faces. When no file is available it falls back to the embedded
// Go fonts, which cover Latin text only, and finally to a fixed bitmap face.
package fonts

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Style selects a face variant.
type Style struct {
	Bold   bool
	Italic bool
}

// Resolver maps font names to faces. It is safe for concurrent use; the
// faces it returns are not and belong to the caller.
type Resolver struct {
	mu        sync.Mutex
	paths     map[string]string
	fallbacks []string
	parsed    map[string]*opentype.Font // by path, nil when unusable
}

// NewResolver returns a resolver preloaded with the platform's usual
// locations of the fonts found in school layouts.
func NewResolver() *Resolver {
	r := &Resolver{
		paths:  make(map[string]string),
		parsed: make(map[string]*opentype.Font),
	}
	for name, files := range knownFonts {
		for _, f := range files {
			if p, ok := findFont(f); ok {
				r.paths[name] = p
				break
			}
		}
	}
	for _, f := range fallbackFiles {
		if p, ok := findFont(f); ok {
			r.fallbacks = append(r.fallbacks, p)
		}
	}
	return r
}

// Register maps name to the font file at path, replacing any earlier
// mapping.
func (r *Resolver) Register(name, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths[name] = path
}

// AddFallback appends a font file tried when a name has no mapping.
func (r *Resolver) AddFallback(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks = append(r.fallbacks, path)
}

// Path returns the file a name resolves to, if any.
func (r *Resolver) Path(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.paths[name]
	return p, ok
}

// Face returns a face for name at sizePx pixels. It never fails.
func (r *Resolver) Face(name string, st Style, sizePx float64) font.Face {
	if sizePx <= 0 {
		sizePx = 1
	}
	if f := r.lookup(name); f != nil {
		if face, err := newFace(f, sizePx); err == nil {
			return face
		}
	}
	if face, err := newFace(goFont(st), sizePx); err == nil {
		return face
	}
	return basicfont.Face7x13
}

// lookup returns the parsed font for name, trying the mapping first and
// then each fallback file.
func (r *Resolver) lookup(name string) *opentype.Font {
	r.mu.Lock()
	defer r.mu.Unlock()

	candidates := make([]string, 0, 1+len(r.fallbacks))
	if p, ok := r.paths[name]; ok {
		candidates = append(candidates, p)
	}
	candidates = append(candidates, r.fallbacks...)
	for _, p := range candidates {
		if f := r.parseLocked(p); f != nil {
			return f
		}
	}
	return nil
}

func (r *Resolver) parseLocked(path string) *opentype.Font {
	if f, seen := r.parsed[path]; seen {
		return f
	}
	var f *opentype.Font
	if data, err := os.ReadFile(path); err == nil {
		if coll, err := opentype.ParseCollection(data); err == nil && coll.NumFonts() > 0 {
			f, _ = coll.Font(0)
		}
	}
	r.parsed[path] = f
	return f
}

func newFace(f *opentype.Font, sizePx float64) (font.Face, error) {
	// At 72 DPI one point is one pixel.
	return opentype.NewFace(f, &opentype.FaceOptions{Size: sizePx, DPI: 72, Hinting: font.HintingFull})
}

var (
	goFonts     map[Style]*opentype.Font
	goFontsOnce sync.Once
)

func goFont(st Style) *opentype.Font {
	goFontsOnce.Do(func() {
		goFonts = make(map[Style]*opentype.Font)
		for st, ttf := range map[Style][]byte{
			{}:                         goregular.TTF,
			{Bold: true}:               gobold.TTF,
			{Italic: true}:             goitalic.TTF,
			{Bold: true, Italic: true}: gobolditalic.TTF,
		} {
			if f, err := opentype.Parse(ttf); err == nil {
				goFonts[st] = f
			}
		}
	})
	if f, ok := goFonts[st]; ok {
		return f
	}
	return goFonts[Style{}]
}

// knownFonts lists candidate file names per layout font name, best first.
var knownFonts = map[string][]string{
	"ＭＳ 明朝":    {"msmincho.ttc"},
	"ＭＳ Ｐ明朝":   {"msmincho.ttc"},
	"ＭＳ ゴシック":  {"msgothic.ttc"},
	"ＭＳ Ｐゴシック": {"msgothic.ttc"},
	"IPAmj明朝":  {"ipamjm.ttf"},
	"メイリオ":     {"meiryo.ttc"},
	"Yu Gothic": {"YuGothR.ttc"},
	"游ゴシック":    {"YuGothR.ttc"},
}

// fallbackFiles are tried for names without a usable file.
var fallbackFiles = []string{
	"ipamjm.ttf",
	"ipaexm.ttf",
	"NotoSerifCJK-Regular.ttc",
	"NotoSansCJK-Regular.ttc",
	"meiryo.ttc",
	"YuGothR.ttc",
	"msgothic.ttc",
}

// FontDirs returns the directories searched for font files.
func FontDirs() []string {
	var dirs []string
	if d := os.Getenv("MEIBO_FONT_DIR"); d != "" {
		dirs = append(dirs, d)
	}
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		dirs = append(dirs, filepath.Join(os.Getenv("WINDIR"), "Fonts"), `C:\Windows\Fonts`)
		if la := os.Getenv("LOCALAPPDATA"); la != "" {
			dirs = append(dirs, filepath.Join(la, "Microsoft", "Windows", "Fonts"))
		}
	case "darwin":
		dirs = append(dirs, "/Library/Fonts", "/System/Library/Fonts")
		if home != "" {
			dirs = append(dirs, filepath.Join(home, "Library", "Fonts"))
		}
	default:
		dirs = append(dirs,
			"/usr/share/fonts/truetype/ipamj",
			"/usr/share/fonts/opentype/ipaexfont-mincho",
			"/usr/share/fonts/opentype/noto",
			"/usr/share/fonts/truetype",
			"/usr/share/fonts",
		)
		if home != "" {
			dirs = append(dirs, filepath.Join(home, ".local", "share", "fonts"))
		}
	}
	return dirs
}

func findFont(file string) (string, bool) {
	for _, d := range FontDirs() {
		p := filepath.Join(d, file)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}
