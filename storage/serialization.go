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


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/normgraph/core"
)

// nodeStrings lists the string fields of a node in wire order.
// The order is part of the snapshot format; append new fields at the end.
func nodeStrings(n *core.Node) []*string {
	return []*string{
		&n.ID,
		(*string)(&n.Type),
		&n.DocumentID,
		&n.Label,
		&n.ClauseID,
		&n.Title,
		&n.ParentID,
		&n.FullText,
		&n.SourceFile,
		&n.RequirementType,
		&n.Keyword,
		&n.ParentClause,
		(*string)(&n.ObligationLevel),
		&n.Text,
		&n.TextHash,
	}
}

// nodeInts lists the integer fields of a node in wire order.
func nodeInts(n *core.Node) []*int {
	return []*int{&n.Level, &n.ChunkIndex}
}

// MarshalNode serializes a Node to bytes.
func MarshalNode(node *core.Node) []byte {
	strs := nodeStrings(node)
	ints := nodeInts(node)

	size := 0
	for _, s := range strs {
		size += ord.String.Size(*s)
	}
	for _, i := range ints {
		size += varint.Int.Size(*i)
	}

	buf := make([]byte, size)
	n := 0
	for _, s := range strs {
		n += ord.String.Marshal(*s, buf[n:])
	}
	for _, i := range ints {
		n += varint.Int.Marshal(*i, buf[n:])
	}
	return buf
}

// UnmarshalNode deserializes a Node from bytes.
func UnmarshalNode(data []byte) (*core.Node, error) {
	node := &core.Node{}
	n := 0
	for _, s := range nodeStrings(node) {
		v, m, err := ord.String.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: node: %w", ErrSerializationFailed, err)
		}
		*s = v
		n += m
	}
	for _, i := range nodeInts(node) {
		v, m, err := varint.Int.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: node: %w", ErrSerializationFailed, err)
		}
		*i = v
		n += m
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: node: %d trailing bytes", ErrSerializationFailed, len(data)-n)
	}
	return node, nil
}

// MarshalEdge serializes an Edge to bytes.
func MarshalEdge(edge core.Edge) []byte {
	rel := string(edge.Relationship)
	size := ord.String.Size(edge.Source) + ord.String.Size(edge.Target) + ord.String.Size(rel)
	buf := make([]byte, size)
	n := ord.String.Marshal(edge.Source, buf)
	n += ord.String.Marshal(edge.Target, buf[n:])
	ord.String.Marshal(rel, buf[n:])
	return buf
}

// UnmarshalEdge deserializes an Edge from bytes.
func UnmarshalEdge(data []byte) (core.Edge, error) {
	var (
		fields [3]string
		n      int
	)
	for i := range fields {
		v, m, err := ord.String.Unmarshal(data[n:])
		if err != nil {
			return core.Edge{}, fmt.Errorf("%w: edge: %w", ErrSerializationFailed, err)
		}
		fields[i] = v
		n += m
	}
	return core.Edge{
		Source:       fields[0],
		Target:       fields[1],
		Relationship: core.Relationship(fields[2]),
	}, nil
}

// MarshalString serializes a single string, used for document ids and index values.
func MarshalString(s string) []byte {
	buf := make([]byte, ord.String.Size(s))
	ord.String.Marshal(s, buf)
	return buf
}

// UnmarshalString deserializes a string written by MarshalString.
func UnmarshalString(data []byte) (string, error) {
	s, _, err := ord.String.Unmarshal(data)
	if err != nil {
		return "", fmt.Errorf("%w: string: %w", ErrSerializationFailed, err)
	}
	return s, nil
}

// MarshalMetadata serializes build Metadata to bytes.
// CreatedAt is stored as Unix nanoseconds in UTC.
func MarshalMetadata(meta *core.Metadata) []byte {
	created := meta.CreatedAt.UnixNano()
	counts := []int{meta.NodeCount, meta.EdgeCount, meta.DocumentCount, meta.ChunkCount}

	size := varint.Int64.Size(created)
	for _, c := range counts {
		size += varint.Int.Size(c)
	}
	buf := make([]byte, size)
	n := varint.Int64.Marshal(created, buf)
	for _, c := range counts {
		n += varint.Int.Marshal(c, buf[n:])
	}
	return buf
}

// UnmarshalMetadata deserializes build Metadata from bytes.
func UnmarshalMetadata(data []byte) (*core.Metadata, error) {
	created, n, err := varint.Int64.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: metadata: %w", ErrSerializationFailed, err)
	}

	meta := &core.Metadata{CreatedAt: time.Unix(0, created).UTC()}
	for _, c := range []*int{&meta.NodeCount, &meta.EdgeCount, &meta.DocumentCount, &meta.ChunkCount} {
		v, m, err := varint.Int.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: metadata: %w", ErrSerializationFailed, err)
		}
		*c = v
		n += m
	}
	return meta, nil
}
