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

import (
	"fmt"
	"strings"
)

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - ChunkID must not be empty
//   - DocumentID must not be empty
//   - Level must not be negative
//   - ParentID must not name the chunk itself
//
// NOT validated (defaults applied at node creation):
//   - Title (empty becomes "Untitled")
//   - Level 0 (becomes 1)
//   - Content (an empty clause is still a structural node)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if strings.TrimSpace(chunk.ChunkID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyChunkID)
	}

	if strings.TrimSpace(chunk.DocumentID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyDocumentID)
	}

	if chunk.Level < 0 {
		return fmt.Errorf("%w: %w: %d", ErrInvalidChunk, ErrNegativeLevel, chunk.Level)
	}

	if chunk.ParentID != "" && chunk.ParentID == chunk.ChunkID {
		return fmt.Errorf("%w: %w: %s", ErrInvalidChunk, ErrSelfParent, chunk.ChunkID)
	}

	return nil
}
