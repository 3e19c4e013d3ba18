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


// Package graph assembles the standards knowledge graph.
//
// A Graph is one build session: it owns the node registry, the per-document
// clause index used for parent resolution, and the ordered edge sequence.
// The phases that populate it are plain functions that take the session
// explicitly:
//
//	g := graph.New()
//	g.AddStandard("EN_50173")
//	g.AddClause(chunk, 1)
//	graph.LinkStructure(g, logger)
//	graph.DetectReferences(ctx, g, graph.ContainmentMatcher{}, logger)
//	graph.DetectSimilarities(ctx, g, graph.DefaultSimilarityOptions(), logger)
//	g.Freeze()
//
// Nodes and edges keep their creation order, so identical input produces an
// identical graph. A frozen graph rejects further mutation.
package graph
