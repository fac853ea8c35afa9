// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - SourceAdapter: Enumerates raw media items for a source string
//   - EmbeddingModel: Converts media or text into vector/text representations
//   - VectorStore: Stores records and answers similarity queries
//
// # Optional Interfaces
//
//   - LLMService: Generates the final answer. Without it, queries return
//     retrieved context only.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
