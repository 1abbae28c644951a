// Package layout defines the in-memory model of a print layout.
//
// A [LayFile] is the aggregate root: a title, page size in model units, an
// ordered list of [Object] values and optional label-sheet geometry
// ([PaperLayout]). Model units are a fixed fraction of a millimeter (0.25 mm
// for classic layouts, 0.1 mm for layouts carrying sheet geometry); see
// [LayFile.UnitMM].
//
// # Objects
//
// [Object] is a closed sum type over seven variants:
//
//   - [Label]: static text in a rectangle
//   - [Field]: a data-bound placeholder identified by a numeric field id
//   - [Line]: a straight ruling between two points
//   - [Group]: an outlined rectangle (children are flattened into the list)
//   - [Table]: a header band plus data rows, one [TableColumn] per column
//   - [Meibo]: a roster placeholder repeating another named layout
//   - [Image]: an embedded raster
//
// Every variant implements the full [Object] method set, so a new variant
// cannot be added without deciding how it clones, transforms and reports its
// bounds. Consumers switch on the concrete type and report anything else as
// an unhandled kind.
//
// # Immutability
//
// A parsed LayFile is never mutated. Fill and tiling work on [LayFile.Clone]
// copies, which deep-copy every slice (table columns, image bytes), so one
// parsed template can back any number of concurrent fills.
//
// # Field dictionary
//
// [FieldName] maps the numeric ids found in .lay files to the logical names
// used as record keys. Unknown ids resolve to "field_NNN" and never fail.
package layout
