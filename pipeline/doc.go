// Package pipeline orchestrates one knowledge graph build.
//
// A Pipeline reads every document from a storage.ChunkRepository and runs the
// build phases in a fixed order on a single graph.Graph:
//
//  1. load chunks (documents read concurrently, merged in lexical order)
//  2. Standard nodes, one per loaded document
//  3. Clause nodes, one per chunk
//  4. Requirement nodes
//  5. structural edges
//  6. cross-reference edges
//  7. similarity edges
//
// Each phase completes before the next starts. Per-file load failures are
// logged and the build continues; a build that loads no chunks at all fails
// with ErrEmptyCorpus before any node is created.
package pipeline
