// Package packet owns the length-prefixed packet wire format.
//
// Wire layout, big-endian, no padding:
//
//	[size: S bits][type: T bits][payload: size bytes]
//
// Ownership boundary:
// - header transcoding per field width
// - completeness checks over partial buffers
// - non-destructive parse and destructive extraction
// - payload capacity validation against the size field
package packet
