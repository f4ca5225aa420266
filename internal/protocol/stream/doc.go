// Package stream turns a byte stream into packets and back.
//
// Ownership boundary:
// - inbound buffering and the extract-until-incomplete loop
// - io.Reader / io.Writer adapters over a packet.Codec
// - memory limits for buffered and announced payload bytes
package stream
