package selector

import (
	"context"
	"encoding/json"
	"math"
	"math/rand/v2"
	"path/filepath"
	"strconv"
	"strings"

	"vignette/internal/clipstore"
	"vignette/internal/logging"
	"vignette/internal/manifest"
)

// Query describes one selection request. Seed, when set, makes the draw
// reproducible; otherwise the selector's own stream decides.
type Query struct {
	PersonaID      string
	Intent         string
	Tone           string
	ContextTags    []string
	RecentAssetIDs []string
	AvoidAssetIDs  []string
	Seed           *uint64
}

// PackageSummary is the slice of package manifest data carried on a Selection.
type PackageSummary struct {
	Name           string   `json:"name"`
	PersonaIDs     []string `json:"persona_ids"`
	ContextTags    []string `json:"context_tags"`
	SupportedTones []string `json:"supported_tones"`
}

// Selection is the chosen clip with everything a player needs to loop it.
// IntentWeight is the package's declared weight for the intent, before the
// zero-means-default substitution used during scoring.
type Selection struct {
	AssetID      string         `json:"asset_id"`
	PackageUUID  string         `json:"package_uuid"`
	Intent       string         `json:"intent"`
	Path         string         `json:"path"`
	RelPath      string         `json:"rel_path"`
	LoopStart    *float64       `json:"loop_start"`
	LoopEnd      *float64       `json:"loop_end"`
	Duration     *float64       `json:"duration"`
	Confidence   *float64       `json:"confidence"`
	Motion       *float64       `json:"motion"`
	Tags         []string       `json:"tags"`
	Metadata     map[string]any `json:"metadata"`
	IntentWeight float64        `json:"intent_weight"`
	Package      PackageSummary `json:"package"`
}

type scoredPackage struct {
	pkg   manifest.Package
	cfg   manifest.Intent
	score float64
}

type candidate struct {
	weight  float64
	clip    ClipPayload
	pkg     manifest.Package
	cfg     manifest.Intent
	avoided bool
}

// SelectClip draws one clip for the query, or nil when no package serves the
// intent or every clip is filtered out. The winner is recorded in the
// (persona, intent) recency history.
func (s *Selector) SelectClip(ctx context.Context, query Query) *Selection {
	packages := s.resolveCandidatePackages(query.PersonaID, query.Intent, query.Tone, query.ContextTags)
	if len(packages) == 0 {
		return nil
	}

	avoid := stringSet(query.AvoidAssetIDs)
	recent := stringSet(query.RecentAssetIDs)

	rng := s.rng
	if query.Seed != nil {
		rng = rand.New(rand.NewPCG(*query.Seed, *query.Seed))
	}

	var candidates []candidate
	unavoided := 0
	for _, entry := range packages {
		clips, ok := s.loadClips(ctx, entry.pkg.UUID, query.Intent)
		if !ok || len(clips) == 0 {
			continue
		}
		intentWeight := entry.cfg.Weight
		if intentWeight == 0 {
			intentWeight = 1.0
		}
		for _, clip := range clips {
			if _, resolved := s.resolver.Path(ctx, clip.AssetID); !resolved {
				continue
			}
			_, avoided := avoid[clip.AssetID]
			_, recently := recent[clip.AssetID]
			weight := clipWeight(clip, intentWeight, entry.score, avoided, recently)
			if weight <= 0 {
				continue
			}
			if !avoided {
				unavoided++
			}
			candidates = append(candidates, candidate{
				weight:  weight,
				clip:    clip,
				pkg:     entry.pkg,
				cfg:     entry.cfg,
				avoided: avoided,
			})
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	// Avoided clips stay in the draw only when nothing else survives, so an
	// avoid list never wins over a live candidate but cannot starve selection.
	pool := candidates
	if unavoided > 0 && unavoided < len(candidates) {
		pool = make([]candidate, 0, unavoided)
		for _, entry := range candidates {
			if !entry.avoided {
				pool = append(pool, entry)
			}
		}
	}

	chosen := pool[drawWeighted(rng, pool)]
	selection := s.buildSelection(ctx, chosen.clip, chosen.pkg, chosen.cfg)
	s.recordRecent(query.PersonaID, query.Intent, chosen.clip.AssetID)
	return selection
}

// resolveCandidatePackages gathers the persona's packages plus the shared
// bucket, dedupes preserving order, and scores each against tone and context.
func (s *Selector) resolveCandidatePackages(personaID, intent, tone string, contextTags []string) []scoredPackage {
	var toneNormalized string
	if tone != "" {
		toneNormalized = strings.ToLower(tone)
	}
	contextSet := lowerSet(contextTags)

	var packageIDs []string
	if personaID != "" {
		packageIDs = append(packageIDs, s.personaIndex[personaID]...)
	}
	packageIDs = append(packageIDs, s.personaIndex[sharedPersona]...)

	seen := make(map[string]struct{}, len(packageIDs))
	var results []scoredPackage
	for _, packageUUID := range packageIDs {
		if _, dup := seen[packageUUID]; dup {
			continue
		}
		seen[packageUUID] = struct{}{}
		pkg, ok := s.packages[packageUUID]
		if !ok {
			continue
		}
		cfg, ok := pkg.Intent(intent)
		if !ok {
			continue
		}

		score := 1.0
		meta := s.meta[packageUUID]
		if toneNormalized != "" && len(meta.tones) > 0 {
			if _, match := meta.tones[toneNormalized]; match {
				score += 0.75
			} else {
				score *= 0.5
			}
		}
		if len(contextSet) > 0 {
			overlap := 0
			for tag := range contextSet {
				if _, ok := meta.context[tag]; ok {
					overlap++
				}
			}
			if overlap > 0 {
				score += 0.25 * float64(overlap)
			} else if len(meta.context) > 0 {
				score *= 0.6
			}
		}
		results = append(results, scoredPackage{pkg: pkg, cfg: cfg, score: score})
	}
	return results
}

// loadClips returns the cached clip list for a (package, intent) pair,
// filling the cache from the clip source on a miss. Empty lists are cached
// too; only a load error leaves the entry unfilled, skipping the package for
// this call.
func (s *Selector) loadClips(ctx context.Context, packageUUID, intent string) ([]ClipPayload, bool) {
	key := cacheKey{packageUUID: packageUUID, intent: intent}
	if cached, ok := s.clipCache[key]; ok {
		return cached, true
	}

	records, err := s.clips.ListClips(ctx, clipstore.Filter{
		PackageUUID: packageUUID,
		Intents:     []string{intent},
	})
	if err != nil {
		s.logger.Warn("clip load failed",
			logging.String("package", packageUUID),
			logging.String("intent", intent),
			logging.Error(err))
		return nil, false
	}

	payloads := make([]ClipPayload, 0, len(records))
	for _, record := range records {
		payloads = append(payloads, payloadFromRecord(record))
	}
	s.clipCache[key] = payloads
	return payloads, true
}

// clipWeight computes the draw weight for one clip. The base is the intent
// weight times the package's tone/context score, floored; analysis signals
// then scale it, and avoid/recent membership damps it.
func clipWeight(clip ClipPayload, intentWeight, packageScore float64, avoided, recent bool) float64 {
	weight := math.Max(0.01, intentWeight*packageScore)
	if clip.Confidence != nil {
		weight *= clampFloat(*clip.Confidence, 0.1, 1.0)
	}
	if clip.Duration != nil && *clip.Duration != 0 {
		weight *= clampFloat(*clip.Duration/3.0, 0.5, 1.5)
	}
	if clip.Motion != nil {
		weight *= clampFloat(0.75+*clip.Motion, 0.25, 1.5)
	}
	if confidence, ok := expressionConfidence(clip.Metadata); ok {
		weight *= clampFloat(0.85+confidence, 0.5, 1.75)
	}
	if avoided {
		weight *= 0.1
	}
	if recent {
		weight *= 0.2
	}
	return weight
}

// clampFloat bounds v to the inclusive [lo, hi] range.
func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// expressionConfidence digs the analyzer's expression confidence out of clip
// metadata, tolerating the numeric shapes a JSON round trip or a hand-edited
// manifest can produce.
func expressionConfidence(metadata map[string]any) (float64, bool) {
	if metadata == nil {
		return 0, false
	}
	value, ok := metadata["expression_confidence"]
	if !ok || value == nil {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return parsed, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// drawWeighted picks an index proportionally to candidate weights, with a
// floor keeping heavily damped clips drawable.
func drawWeighted(rng *rand.Rand, pool []candidate) int {
	total := 0.0
	for _, entry := range pool {
		total += math.Max(0.001, entry.weight)
	}
	target := rng.Float64() * total
	cumulative := 0.0
	for i, entry := range pool {
		cumulative += math.Max(0.001, entry.weight)
		if target < cumulative {
			return i
		}
	}
	return len(pool) - 1
}

func (s *Selector) buildSelection(ctx context.Context, clip ClipPayload, pkg manifest.Package, cfg manifest.Intent) *Selection {
	path, ok := s.resolver.Path(ctx, clip.AssetID)
	if !ok || path == "" {
		path = filepath.Join(pkg.Path, clip.RelPath)
	}
	return &Selection{
		AssetID:      clip.AssetID,
		PackageUUID:  clip.PackageUUID,
		Intent:       clip.Intent,
		Path:         path,
		RelPath:      clip.RelPath,
		LoopStart:    copyFloat(clip.LoopStart),
		LoopEnd:      copyFloat(clip.LoopEnd),
		Duration:     copyFloat(clip.Duration),
		Confidence:   copyFloat(clip.Confidence),
		Motion:       copyFloat(clip.Motion),
		Tags:         append([]string(nil), clip.Tags...),
		Metadata:     cloneMetadata(clip.Metadata),
		IntentWeight: cfg.Weight,
		Package: PackageSummary{
			Name:           pkg.Name,
			PersonaIDs:     append([]string(nil), pkg.PersonaIDs...),
			ContextTags:    append([]string(nil), pkg.ContextTags...),
			SupportedTones: append([]string(nil), pkg.SupportedTones...),
		},
	}
}

func cloneMetadata(metadata map[string]any) map[string]any {
	if metadata == nil {
		return nil
	}
	clone := make(map[string]any, len(metadata))
	for key, value := range metadata {
		clone[key] = value
	}
	return clone
}

func stringSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	return set
}
