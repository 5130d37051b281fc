// Package usermemory derives long-lived preference facts from conversation
// text and order outcomes. Memories are append-only in the analytics store;
// the derived preference summary is recomputed from the full memory list on
// each read, never stored redundantly. A short-TTL read cache per user
// absorbs repeated profile reads within a conversational burst and is
// invalidated immediately on any write.
package usermemory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/logging"
)

const (
	// profileCacheTTL bounds staleness of a cached profile between writes.
	profileCacheTTL = 2 * time.Minute

	// profileMemoryLimit caps how many recent memories a profile read pulls.
	profileMemoryLimit = 50
)

// Price tiers derived from remembered budget signals.
const (
	TierBudget   = "budget"
	TierStandard = "standard"
	TierPremium  = "premium"
)

// Options configure the store.
type Options struct {
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
	// CacheTTL overrides the profile read-cache TTL.
	CacheTTL time.Duration
}

// Store extracts and serves per-user memories on top of the analytics store.
type Store struct {
	analytics core.AnalyticsStore
	cache     *core.TTLCache[core.UserProfile]
	logger    logging.Logger
}

// NewStore constructs a user-memory store backed by the given analytics
// store.
func NewStore(analytics core.AnalyticsStore, optFns ...func(o *Options)) *Store {
	opts := Options{Logger: logging.NoOpLogger{}, CacheTTL: profileCacheTTL}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = profileCacheTTL
	}
	return &Store{
		analytics: analytics,
		cache:     core.NewTTLCache[core.UserProfile](opts.CacheTTL, nil),
		logger:    opts.Logger,
	}
}

// dietaryTerms map conversation phrasing to a normalized dietary restriction.
// Ordered most specific first; the first matching phrase wins, so a message
// carrying both "vegan" and "veg only" records vegan.
var dietaryTerms = []struct{ phrase, diet string }{
	{"vegan", "vegan"},
	{"jain", "jain"},
	{"no onion", "jain"},
	{"eggless", "eggless"},
	{"halal", "halal"},
	{"vegetarian", "vegetarian"},
	{"pure veg", "vegetarian"},
	{"veg only", "vegetarian"},
	{"i am veg", "vegetarian"},
	{"i'm veg", "vegetarian"},
}

// allergyTerms are substances worth remembering when mentioned with allergy
// phrasing.
var allergyTerms = []string{"peanut", "nuts", "gluten", "lactose", "dairy", "shellfish", "soy", "egg"}

// favoriteMarkers introduce a liked item or store.
var favoriteMarkers = []string{"i love", "i like", "my favorite", "my favourite", "always order"}

// Observe scans one user message for preference phrasing and appends a memory
// for each match. It is best-effort: extraction misses are fine and store
// failures are logged, not propagated, so observation never blocks a turn.
func (s *Store) Observe(ctx context.Context, userID, text string) {
	if userID == "" || text == "" {
		return
	}
	lower := strings.ToLower(text)

	for _, t := range dietaryTerms {
		if strings.Contains(lower, t.phrase) {
			s.append(ctx, userID, core.UserMemory{
				Type:       core.MemoryPreference,
				Content:    "dietary:" + t.diet,
				Confidence: 0.9,
			})
			break
		}
	}

	if strings.Contains(lower, "allerg") {
		for _, substance := range allergyTerms {
			if strings.Contains(lower, substance) {
				s.append(ctx, userID, core.UserMemory{
					Type:       core.MemoryFact,
					Content:    "allergy:" + substance,
					Confidence: 0.95,
				})
			}
		}
	}

	for _, marker := range favoriteMarkers {
		if idx := strings.Index(lower, marker); idx >= 0 {
			liked := strings.Trim(lower[idx+len(marker):], " .,!?")
			if liked != "" && len(liked) < 60 {
				s.append(ctx, userID, core.UserMemory{
					Type:       core.MemoryPreference,
					Content:    "favorite:" + liked,
					Confidence: 0.7,
				})
			}
			break
		}
	}

	if tier := budgetTier(lower); tier != "" {
		s.append(ctx, userID, core.UserMemory{
			Type:       core.MemoryPreference,
			Content:    "price_tier:" + tier,
			Confidence: 0.6,
		})
	}
}

// budgetTier maps explicit budget phrasing to a tier.
func budgetTier(lower string) string {
	switch {
	case strings.Contains(lower, "cheap") || strings.Contains(lower, "budget") || strings.Contains(lower, "affordable"):
		return TierBudget
	case strings.Contains(lower, "premium") || strings.Contains(lower, "best quality") || strings.Contains(lower, "don't care about price"):
		return TierPremium
	default:
		return ""
	}
}

// RecordCart appends an order-history memory listing the cart's item names.
func (s *Store) RecordCart(ctx context.Context, userID string, cart core.CartSummary) {
	if userID == "" || len(cart.Lines) == 0 {
		return
	}
	names := make([]string, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		names = append(names, line.Name)
	}
	s.append(ctx, userID, core.UserMemory{
		Type:       core.MemoryOrderHistory,
		Content:    "ordered:" + strings.Join(names, ", "),
		Confidence: 1.0,
	})
}

// Remember appends an explicit, user-stated memory.
func (s *Store) Remember(ctx context.Context, userID string, memType core.MemoryType, content string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if content == "" {
		return fmt.Errorf("memory content is required")
	}
	if memType == "" {
		memType = core.MemoryPreference
	}
	m := core.UserMemory{
		Type:       memType,
		Content:    content,
		Confidence: 1.0,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.analytics.AppendMemory(ctx, userID, m); err != nil {
		return fmt.Errorf("append memory: %w", err)
	}
	s.cache.Invalidate(userID)
	return nil
}

// append writes one memory and invalidates the user's cached profile.
// Failures are logged and swallowed.
func (s *Store) append(ctx context.Context, userID string, m core.UserMemory) {
	if s.analytics == nil {
		return
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if err := s.analytics.AppendMemory(ctx, userID, m); err != nil {
		s.logger.Warn("memory append failed", "user", userID, "type", m.Type, "error", err)
		return
	}
	s.cache.Invalidate(userID)
	s.logger.Debug("memory appended", "user", userID, "type", m.Type, "content", m.Content)
}

// Profile returns the user's recent memories plus the derived preference
// summary, serving from the read cache when fresh.
func (s *Store) Profile(ctx context.Context, userID string) (core.UserProfile, error) {
	if userID == "" {
		return core.UserProfile{}, fmt.Errorf("user id is required")
	}
	if profile, ok := s.cache.Get(userID); ok {
		return profile, nil
	}

	memories, err := s.analytics.Memories(ctx, userID, profileMemoryLimit)
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("read memories: %w", err)
	}
	profile := core.UserProfile{
		UserID:   userID,
		Memories: memories,
		Summary:  Summarize(memories),
	}
	s.cache.Set(userID, profile)
	return profile, nil
}

// Summarize recomputes the preference summary from a memory list.
func Summarize(memories []core.UserMemory) core.PreferenceSummary {
	var summary core.PreferenceSummary
	dietary := map[string]bool{}
	categories := map[string]bool{}
	stores := map[string]bool{}

	for _, m := range memories {
		key, value, ok := strings.Cut(m.Content, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "dietary", "allergy":
			if !dietary[value] {
				dietary[value] = true
				summary.DietaryRestrictions = append(summary.DietaryRestrictions, value)
			}
		case "favorite":
			if !categories[value] {
				categories[value] = true
				summary.FavoriteCategories = append(summary.FavoriteCategories, value)
			}
		case "store":
			if !stores[value] {
				stores[value] = true
				summary.PreferredStores = append(summary.PreferredStores, value)
			}
		case "price_tier":
			// Latest signal wins; memories arrive oldest-first.
			summary.PriceTier = value
		}
	}
	if summary.PriceTier == "" {
		summary.PriceTier = TierStandard
	}
	return summary
}
