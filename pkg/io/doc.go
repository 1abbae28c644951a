// Package io provides the JSON mirror of a layout.
//
// # Overview
//
// The binary .lay format can only be read. Layouts that are edited, imported
// into a registry or exchanged with other tools are stored as JSON instead.
// The mirror carries every attribute of the object model, so a layout read
// from a .lay file, exported and re-imported compares equal to the original.
//
// # JSON Format
//
//	{
//	  "format": "meibo_layout_v2",
//	  "title": "個票",
//	  "version": 1,
//	  "page_width": 840,
//	  "page_height": 1188,
//	  "objects": [
//	    {"type": "LABEL", "rect": [10, 10, 200, 40], "text": "氏名"},
//	    {"type": "FIELD", "rect": [210, 10, 400, 40], "field_id": 108},
//	    {"type": "LINE", "line_start": [10, 50], "line_end": [400, 50]}
//	  ],
//	  "paper": {"mode": 1, "unit_mm": 0.1, "cols": 2, "rows": 5}
//	}
//
// The format tag is meibo_layout_v1 unless the layout has sheet geometry,
// table columns, roster placeholders or images, in which case it is
// meibo_layout_v2. Both are accepted on import.
//
// Each object carries a "type" (LABEL, FIELD, LINE, GROUP, TABLE, MEIBO or
// IMAGE) and only the keys its variant needs. Fonts are written only when
// they differ from the default. Image bytes are base64 encoded.
//
// # Import
//
// Use [ImportJSON] to read a layout from a file, or [ReadJSON] to read from
// any io.Reader:
//
//	lay, err := io.ImportJSON("個票.json")
//
// An unknown format tag or object type fails with FORMAT_ERROR.
//
// # Export
//
// Use [ExportJSON] to write a layout to a file, or [WriteJSON] to write to
// any io.Writer:
//
//	err := io.ExportJSON(lay, "個票.json")
//
// ExportJSON writes to a temporary file in the target directory and renames
// it into place, so an interrupted export never leaves a truncated file.
package io
