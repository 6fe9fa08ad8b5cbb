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


// Package search provides semantic search over ingested chunks.
//
// The Searcher type embeds a query, retrieves the nearest stored chunks by
// vector similarity, and applies a verbatim keyword boost with stop-word
// filtering. Chunk keyword and question annotations participate in the
// verbatim match, so a chunk tagged with a term ranks above one that merely
// resembles it.
package search
