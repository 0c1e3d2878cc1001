// Package manager provides the sound catalog façade.
//
// A Manager combines the atlas index, the asset cache and the mutable
// priority state (active packages, active languages, priority list, load
// path, extension) behind the public load/request/dispose operations.
//
// # Loading
//
//	m := manager.New(manager.Options{Settings: settings})
//	if err := m.LoadAtlas(ctx, settings.AtlasURL); err != nil {
//	    // atlas unreachable or malformed
//	}
//	tok := m.LoadSource(ctx, "explosion")
//	buf, err := tok.Await(ctx)
//
// # Synchronous requests
//
// RequestBufferSync never blocks: it returns the decoded buffer when the
// load already settled, the pre-allocated silence while it is in flight,
// and nil for unknown source names. The silence buffer is refilled in
// place once decoding completes.
//
// # Events
//
// Consumers subscribe to lifecycle notifications by name:
//
//	id := m.Subscribe(manager.EventFileLoaded, func(ev manager.Event) {
//	    log.Printf("loaded %s", ev.Detail)
//	})
//	defer m.Unsubscribe(manager.EventFileLoaded, id)
package manager
