// Package dusk is the composition root for the dusk journaling core.
//
// It wires the record store, the reaction tracker, the plaza opening window
// and the filler mixer around a storage adapter, and hands back a
// *core.Service for a presentation layer to drive.
//
// Two collections are kept: a private journal ("echo archives") and a public
// twilight board that only accepts posts while the plaza is open (19:00 to
// 01:00 local time by default). Board messages expire after seven days and
// at most fifty are kept. Sparse boards are padded with synthetic messages
// that never reach storage.
//
// Storage is pluggable. The default adapter writes one JSON file per
// collection; memory, pebble and sqlite adapters are selected by name.
//
// Usage:
//
//	svc, err := dusk.New(".dusk",
//		dusk.WithAdapter("sqlite"),
//		dusk.WithLogger(logger),
//	)
//
//	entry, err := svc.ArchiveEntry(ctx, "the sky was orange today")
//	feed, err := svc.Feed(ctx)
package dusk
