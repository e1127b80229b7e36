// Package model defines the text-generation seam between TutorMesh and
// hosted LLM providers. Adapters for concrete providers live in sub-packages
// (gemini, openai, anthropic); each one normalizes its SDK's response shape
// into a plain string before it leaves the adapter, so the rest of the
// system only ever sees raw model output and never provider-specific
// response types. The package also carries the explicit fallback policy
// (Fallback), a per-run call budget (LimitedGenerator) and a
// deterministic MockGenerator for tests and examples.
package model
