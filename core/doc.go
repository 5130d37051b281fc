// Package core defines the domain types and collaborator interfaces shared
// by every QueryPilot engine: the canonical ExtractedFilters shape, the
// per-session ConversationContext, execution plans, user memories, and the
// ports to external AI services (classifier, LLM, NER, voice, search, cart,
// analytics, session store).
//
// The package has no external-service dependencies of its own; concrete
// adapters live in their provider packages and are swapped for deterministic
// fakes in tests.
package core
