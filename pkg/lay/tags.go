package lay

// Document-level tags.
const (
	TagTitle       uint16 = 0x05DC
	TagFlag1       uint16 = 0x05DF
	TagFlag2       uint16 = 0x05E0
	TagContent     uint16 = 0x05E1
	TagLCID        uint16 = 0x05E2
	TagLayoutEntry uint16 = 0x0640 // additional layout in a multi-layout file
)

// Object tags. Inside an object block, TagStyle carries the style flag.
const (
	TagStyle     uint16 = 0x03E8
	TagLine      uint16 = 0x03E9
	TagContainer uint16 = 0x03EA // object list or group
	TagLabel     uint16 = 0x03EB
	TagField     uint16 = 0x03EC
	TagProp5     uint16 = 0x03ED
	TagProp6     uint16 = 0x03EE
	TagTable     uint16 = 0x03EF

	// Not observed in legacy samples; assigned for roster and image objects.
	TagMeibo uint16 = 0x03F0
	TagImage uint16 = 0x03F1
)

// Geometry tags. Their payload depends on the enclosing block.
const (
	TagGeoFlag   uint16 = 0x07D0 // content: mode byte; meibo: direction
	TagGeoRect   uint16 = 0x07D1 // object: rect or line start; content: item size
	TagGeoPoint2 uint16 = 0x07D2 // line end; content: cols/rows; meibo: cell size
	TagGeoProp3  uint16 = 0x07D3 // content: spacing; table: font size; meibo: row count
	TagGeoProp4  uint16 = 0x07D4 // content: margins; table: row count; meibo: start index
)

// Property tags.
const (
	TagText   uint16 = 0x0BB9 // label text, field id, meibo ref name, image bytes
	TagHAlign uint16 = 0x0BBA
	TagVAlign uint16 = 0x0BBB
	TagFont   uint16 = 0x0BBC // font block, or a column block inside a table
	TagPrefix uint16 = 0x0BBD
	TagSuffix uint16 = 0x0BBE
)

// Font block tags. Inside a table column block the same values carry field
// id, width, alignment and (TagColumnHeader) the header text.
const (
	TagFontName  uint16 = 0x03E8
	TagFontStyle uint16 = 0x03E9
	TagFontSize  uint16 = 0x03EA

	TagColumnFieldID = TagFontName
	TagColumnWidth   = TagFontStyle
	TagColumnAlign   = TagFontSize
	TagColumnHeader  uint16 = 0x03EB
)

// Font style bits. The meaning is inferred from sample files only.
const (
	FontStyleBold   = 1 << 0
	FontStyleItalic = 1 << 1
)
