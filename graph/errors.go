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


package graph

import "errors"

var (
	// ErrDuplicateNode is returned when a node id is already registered.
	ErrDuplicateNode = errors.New("duplicate node id")

	// ErrDanglingEdge is returned when an edge endpoint is not registered.
	ErrDanglingEdge = errors.New("edge endpoint not found")

	// ErrFrozen is returned when a frozen graph is mutated.
	ErrFrozen = errors.New("graph is frozen")

	// ErrUnknownMatcher is returned for an unrecognized citation matcher name.
	ErrUnknownMatcher = errors.New("unknown citation matcher")

	// ErrUnknownPolicy is returned for an unrecognized similarity policy.
	ErrUnknownPolicy = errors.New("unknown similarity policy")

	// ErrInvalidThreshold is returned when a similarity threshold is outside (0, 1].
	ErrInvalidThreshold = errors.New("similarity threshold must be in (0, 1]")
)
