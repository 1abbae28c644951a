// Package tlv iterates the tag/length/value records that make up the body
// of a .lay document.
//
// Every record is laid out as
//
//	[tag:uint16-LE][length:uint32-LE][payload:length bytes]
//
// and lists are not length-prefixed as a whole: a [Walker] stops cleanly as
// soon as fewer than six bytes remain in its range. A record whose payload
// would run past the end of the enclosing range is a FORMAT_ERROR.
//
// Duplicate tags are legal. The walker reports every record in order and
// leaves the combination policy (first wins, last wins, accumulate) to the
// caller, which knows the context the record appears in.
//
// The package also carries the little-endian payload decoders and the
// UTF-16LE text codec shared by the parser, plus [Append] for building
// record streams in tests and fixtures.
package tlv
