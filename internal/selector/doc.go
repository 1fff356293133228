// Package selector picks the best replay-loop clip for a persona, intent,
// tone, and context out of the analyzed library. Packages are indexed by
// persona with a shared bucket for packages that declare none; clips load
// lazily per (package, intent) from the clip store and stay cached until
// explicitly invalidated. Selection is a weighted random draw over scored
// candidates, with a recency ring buffer biasing against repeats.
//
// A Selector performs no internal locking. Hosts must serialize SelectClip
// against RefreshManifests and InvalidatePackage, for example by driving the
// selector and the event bus from a single goroutine.
package selector
