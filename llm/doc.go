// Package llm defines the uniform provider abstraction that turns a
// conversation history into a single textual reply, hiding the protocol
// differences between chat-style and completion-style backends.
//
// Adapters live in llm/providers. Each adapter applies the bounded
// history window itself, shapes its own wire request, and translates
// backend failures into typed errors.
package llm
