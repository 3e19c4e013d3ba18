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


// Package storage provides the storage abstraction layer for normgraph.
//
// This package defines the repository interfaces that sit at the edges of a
// build: the ChunkRepository that supplies the input corpus and the
// SnapshotRepository that can receive a finished graph. Business logic in the
// graph and pipeline packages depends only on these interfaces.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return the interface, not the
// concrete type:
//
//	repo, err := fs.NewChunkRepository(root)     // returns storage.ChunkRepository
//	snap, err := badger.NewSnapshotRepository(b) // returns storage.SnapshotRepository
//
// # Architecture
//
//   - ChunkRepository: lists documents and loads their chunk records
//   - SnapshotRepository: writes a graph snapshot once and reads it back
//   - LoadError: a per-file failure that the caller logs and skips
//
// # Serialization
//
// Snapshot backends store nodes, edges and metadata in the compact binary
// encoding produced by MarshalNode, MarshalEdge and MarshalMetadata.
//
// # Context Support
//
// All repository methods accept context.Context. Pass context.Background()
// for operations without specific timeout requirements.
package storage
