// Package serializer writes an ensemble to disk.
//
// Every output is written to a temporary file next to its destination and renamed into place
// by Commit, so a destination either holds a complete ensemble or is left untouched. Sinks
// accept members in any order and write them by index.
package serializer
