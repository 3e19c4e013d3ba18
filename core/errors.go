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
	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyChunkID indicates the chunk_id field is empty.
	ErrEmptyChunkID = errors.New("chunk id cannot be empty")

	// ErrEmptyDocumentID indicates the document_id field is empty.
	ErrEmptyDocumentID = errors.New("document id cannot be empty")

	// ErrNegativeLevel indicates a hierarchy level below zero.
	ErrNegativeLevel = errors.New("level cannot be negative")

	// ErrSelfParent indicates a chunk that names itself as its parent.
	ErrSelfParent = errors.New("chunk cannot be its own parent")
)
