// Package testutil contains helper builders and deterministic fakes used
// across tests to reduce boilerplate when constructing filters and
// conversation contexts and when scripting the external AI services (fixed
// classifier outputs, canned LLM JSON, fake search results). They are not
// intended for production usage.
package testutil
