// Package sqlite persists decoded pose frames in SQLite.
//
// A frame row records where a tensor came from and its grid size; body rows
// hold per-body summaries; limb rows hold every limb in the wire format
// (pixel coordinates, part names). The schema is owned by the embedded
// migrations and applied with golang-migrate.
package sqlite
