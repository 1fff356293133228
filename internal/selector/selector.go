package selector

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"

	"vignette/internal/bus"
	"vignette/internal/clipstore"
	"vignette/internal/logging"
	"vignette/internal/manifest"
)

// sharedPersona buckets packages that declare no persona ids. Clips in the
// shared bucket are candidates for every persona.
const sharedPersona = "__shared__"

// recentHistoryLimit bounds the per-(persona, intent) recency ring.
const recentHistoryLimit = 6

// ClipSource lists analyzed clip rows, usually a *clipstore.Store.
type ClipSource interface {
	ListClips(ctx context.Context, filter clipstore.Filter) ([]*clipstore.Record, error)
}

// ManifestProvider supplies the current package set in discovery order.
type ManifestProvider interface {
	Packages() []manifest.Package
}

// AssetResolver maps asset ids to playable file paths. The boolean reports
// whether the id is known; clips whose ids do not resolve are skipped.
type AssetResolver interface {
	Path(ctx context.Context, assetID string) (string, bool)
}

type cacheKey struct {
	packageUUID string
	intent      string
}

type historyKey struct {
	persona string
	intent  string
}

// packageMeta holds the lowercased tone and context sets computed once per
// refresh so per-query scoring does no string normalization.
type packageMeta struct {
	tones   map[string]struct{}
	context map[string]struct{}
}

// Selector owns the package index, the per-(package, intent) clip cache, and
// the recency history. It is not safe for concurrent use; see the package
// documentation for the serialization contract.
type Selector struct {
	logger   *slog.Logger
	clips    ClipSource
	provider ManifestProvider
	resolver AssetResolver

	packages     map[string]manifest.Package
	meta         map[string]packageMeta
	personaIndex map[string][]string
	clipCache    map[cacheKey][]ClipPayload
	recent       map[historyKey][]string
	rng          *rand.Rand
}

// New builds a Selector over the given sources and indexes the provider's
// current packages.
func New(clips ClipSource, provider ManifestProvider, resolver AssetResolver, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Selector{
		logger:   logging.NewComponentLogger(logger, "selector"),
		clips:    clips,
		provider: provider,
		resolver: resolver,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	s.RefreshManifests()
	return s
}

// AttachBus subscribes the selector to package lifecycle events. Handlers run
// on the publisher's goroutine, so hosts that publish from one goroutine keep
// the selector's no-locking contract for free.
func (s *Selector) AttachBus(b *bus.Bus) {
	b.Subscribe(bus.EventPackagesSynced, func(bus.Event) {
		s.RefreshManifests()
	})
	b.Subscribe(bus.EventPackageUpdated, func(event bus.Event) {
		if event.PackageUUID != "" {
			s.InvalidatePackage(event.PackageUUID)
			return
		}
		s.RefreshManifests()
	})
}

// RefreshManifests rebuilds the package and persona indexes from the provider
// and drops cached clips for packages that no longer exist. Cached clips for
// surviving packages are kept; use InvalidatePackage when a package's content
// changed.
func (s *Selector) RefreshManifests() {
	s.packages = make(map[string]manifest.Package)
	s.meta = make(map[string]packageMeta)
	s.personaIndex = make(map[string][]string)

	for _, pkg := range s.provider.Packages() {
		if pkg.UUID == "" {
			continue
		}
		if _, dup := s.packages[pkg.UUID]; dup {
			continue
		}
		s.packages[pkg.UUID] = pkg
		s.meta[pkg.UUID] = packageMeta{
			tones:   lowerSet(pkg.SupportedTones),
			context: lowerSet(pkg.ContextTags),
		}
		personas := pkg.PersonaIDs
		if len(personas) == 0 {
			personas = []string{sharedPersona}
		}
		for _, persona := range personas {
			s.personaIndex[persona] = append(s.personaIndex[persona], pkg.UUID)
		}
	}

	if s.clipCache == nil {
		s.clipCache = make(map[cacheKey][]ClipPayload)
		return
	}
	for key := range s.clipCache {
		if _, ok := s.packages[key.packageUUID]; !ok {
			delete(s.clipCache, key)
		}
	}
}

// InvalidatePackage drops every cached clip list for the package, forcing a
// reload from the clip source on the next selection that considers it.
func (s *Selector) InvalidatePackage(packageUUID string) {
	for key := range s.clipCache {
		if key.packageUUID == packageUUID {
			delete(s.clipCache, key)
		}
	}
}

// Reset drops the clip cache and recency history and reindexes the provider.
func (s *Selector) Reset() {
	s.clipCache = make(map[cacheKey][]ClipPayload)
	s.recent = make(map[historyKey][]string)
	s.RefreshManifests()
}

// ClearRecent forgets the recency history for one (persona, intent) pair. An
// empty persona clears the shared bucket.
func (s *Selector) ClearRecent(personaID, intent string) {
	delete(s.recent, recencyKey(personaID, intent))
}

// RecentAssets returns the recency history for a (persona, intent) pair,
// oldest first.
func (s *Selector) RecentAssets(personaID, intent string) []string {
	history := s.recent[recencyKey(personaID, intent)]
	if len(history) == 0 {
		return nil
	}
	return append([]string(nil), history...)
}

func (s *Selector) recordRecent(personaID, intent, assetID string) {
	if s.recent == nil {
		s.recent = make(map[historyKey][]string)
	}
	key := recencyKey(personaID, intent)
	history := append(s.recent[key], assetID)
	if overflow := len(history) - recentHistoryLimit; overflow > 0 {
		history = history[overflow:]
	}
	s.recent[key] = history
}

func recencyKey(personaID, intent string) historyKey {
	if personaID == "" {
		personaID = sharedPersona
	}
	return historyKey{persona: personaID, intent: intent}
}

func lowerSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[strings.ToLower(value)] = struct{}{}
	}
	return set
}
