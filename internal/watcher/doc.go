// Package watcher detects unexpected deletion of the live database.
//
// The watch is registered on the database's parent directory, not the
// file itself: file-deletion events are only reliably observable at the
// directory level on most platforms. Raw fsnotify events arrive in
// bursts, so they are debounced into a single evaluation after a quiet
// period. An evaluation that finds the database file (or a companion
// that was just removed) missing sets a sticky deletion flag and
// notifies exactly once per watch session.
//
// Example usage:
//
//	w, err := watcher.StartWatching(dbPath, watcher.Options{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer w.Stop()
//
//	for path := range w.Deletions() {
//		fmt.Println("database file removed:", path)
//	}
package watcher
