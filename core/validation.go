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


package core

import "fmt"

// ValidateChunkRequest validates a ChunkRequest according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//
// NOT validated (populated by the engine):
//   - Keywords and questions (optional annotations)
func ValidateChunkRequest(chunk *ChunkRequest) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	return nil
}

// ValidateDocInfo validates a DocInfo according to domain rules.
//
// Validation rules:
//   - DocumentID must not be empty
//   - DatasetID must not be empty
//   - DocumentName must not be empty
func ValidateDocInfo(doc *DocInfo) error {
	if doc == nil {
		return fmt.Errorf("%w: doc info is nil", ErrInvalidDocInfo)
	}

	if doc.DocumentID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocInfo, ErrEmptyDocumentID)
	}

	if doc.DatasetID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocInfo, ErrEmptyDatasetID)
	}

	if doc.DocumentName == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocInfo, ErrEmptyDocumentName)
	}

	return nil
}
