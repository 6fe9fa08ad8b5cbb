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

import "errors"

// Domain validation errors
var (
	// ErrInvalidChunk indicates a ChunkRequest failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidDocInfo indicates a DocInfo failed validation.
	ErrInvalidDocInfo = errors.New("invalid document info")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyDocumentID indicates the DocumentID field is empty.
	ErrEmptyDocumentID = errors.New("document id cannot be empty")

	// ErrEmptyDatasetID indicates the DatasetID field is empty.
	ErrEmptyDatasetID = errors.New("dataset id cannot be empty")

	// ErrEmptyDocumentName indicates the DocumentName field is empty.
	ErrEmptyDocumentName = errors.New("document name cannot be empty")
)
