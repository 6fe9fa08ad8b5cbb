// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ai provides abstractions for the embedding services used in Indexit.
//
// This package defines the Embedder interface that the ingestion engine and
// the search path depend on. It follows the dependency inversion principle,
// allowing the core domain and business logic to depend on abstractions
// rather than concrete implementations.
//
// # Implementation Packages
//
// The ai package includes two implementation sub-packages:
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewEmbedder, NewRateLimitedEmbedder) return the
// INTERFACE type to enforce abstraction and prevent accidental coupling to
// concrete implementations. This is essential for dependency injection and
// supporting multiple implementations.
//
//	embedder, err := openai.NewEmbedder(config)  // returns ai.Embedder
//
// Test utility constructors (mock.NewMockEmbedder) return CONCRETE types to
// enable test assertions and behavior injection via the mock's public methods
// (CallCount, WithEmbedTextsFunc, Reset, etc.).
//
//	mockEmbed := mock.NewMockEmbedder()   // returns *mock.MockEmbedder
//	mockEmbed.WithEmbedTextsFunc(...)     // needs concrete type
//	count := mockEmbed.CallCount()        // test assertion
//
// # Rate Limiting
//
// RateLimitedEmbedder wraps any Embedder with a token-bucket limit on outbound
// requests, so a shared embedding endpoint is not overwhelmed by large
// ingestion runs. It is constructed automatically when Config.RequestsPerSecond
// is set.
//
// # Usage Example
//
//	// Production usage with an OpenAI-compatible endpoint
//	config := ai.DefaultConfig()
//	embedder, err := openai.NewEmbedder(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	vectors, cost, err := embedder.EmbedTexts(ctx, []string{"Hello world"})
//
//	// Testing usage with mocks
//	mockEmbed := mock.NewMockEmbedder()
//	vectors, cost, err := mockEmbed.EmbedTexts(ctx, []string{"test text"})
package ai
