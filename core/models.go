package core

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// PreviewLength is the number of characters kept in a clause's display preview.
const PreviewLength = 500

// fingerprintSize is the digest length in bytes; hex encoding doubles it.
const fingerprintSize = 8

// NodeType identifies the kind of a graph node.
type NodeType string

const (
	// NodeTypeStandard is the root node of one source document.
	NodeTypeStandard NodeType = "Standard"
	// NodeTypeClause is a structural section of a document.
	NodeTypeClause NodeType = "Clause"
	// NodeTypeRequirement is a normative statement extracted from a clause.
	NodeTypeRequirement NodeType = "Requirement"
)

// Relationship labels a directed edge.
type Relationship string

const (
	RelHasClause           Relationship = "HAS_CLAUSE"
	RelHasSubclause        Relationship = "HAS_SUBCLAUSE"
	RelContainsRequirement Relationship = "CONTAINS_REQUIREMENT"
	RelReferences          Relationship = "REFERENCES"
	RelSimilarTo           Relationship = "SIMILAR_TO"
)

// ObligationLevel is the normative strength of a requirement.
type ObligationLevel string

const (
	ObligationMandatory   ObligationLevel = "MANDATORY"
	ObligationRecommended ObligationLevel = "RECOMMENDED"
	ObligationOptional    ObligationLevel = "OPTIONAL"
	ObligationUnknown     ObligationLevel = "UNKNOWN"
)

var obligationByKeyword = map[string]ObligationLevel{
	"shall":  ObligationMandatory,
	"must":   ObligationMandatory,
	"should": ObligationRecommended,
	"may":    ObligationOptional,
	"can":    ObligationOptional,
}

// ObligationFor maps a requirement keyword to its obligation level.
// Matching is case-insensitive; unrecognized keywords map to ObligationUnknown.
func ObligationFor(keyword string) ObligationLevel {
	if level, ok := obligationByKeyword[strings.ToLower(strings.TrimSpace(keyword))]; ok {
		return level
	}
	return ObligationUnknown
}

// Fragment is one piece of text inside a chunk, in reading order.
type Fragment struct {
	Text string `json:"text" yaml:"text"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
	Page int    `json:"page,omitempty" yaml:"page,omitempty"`
}

// RequirementRecord is a normative statement the chunk producer extracted from a chunk.
type RequirementRecord struct {
	Text    string `json:"text" yaml:"text"`
	Keyword string `json:"keyword" yaml:"keyword"`
	Type    string `json:"type" yaml:"type"`
}

// Chunk is the smallest indexed unit of a source document as produced upstream.
// An empty ParentID means the chunk hangs directly off its document.
type Chunk struct {
	DocumentID   string              `json:"document_id" yaml:"document_id"`
	ChunkID      string              `json:"chunk_id" yaml:"chunk_id"`
	Title        string              `json:"title" yaml:"title"`
	Level        int                 `json:"level" yaml:"level"`
	ParentID     string              `json:"parent_id" yaml:"parent_id"`
	Content      []Fragment          `json:"content" yaml:"content"`
	Requirements []RequirementRecord `json:"requirements,omitempty" yaml:"requirements,omitempty"`

	// SourceFile is set by the repository that loaded the chunk.
	SourceFile string `json:"-" yaml:"-"`
}

// FullText joins the chunk's fragments with single spaces.
func (c *Chunk) FullText() string {
	parts := make([]string, len(c.Content))
	for i, f := range c.Content {
		parts[i] = f.Text
	}
	return strings.Join(parts, " ")
}

// Node is a vertex of the knowledge graph. Only the fields of its Type are populated.
type Node struct {
	ID         string   `json:"id"`
	Type       NodeType `json:"type"`
	DocumentID string   `json:"document_id"`

	// Standard
	Label string `json:"label,omitempty"`

	// Clause
	ClauseID   string `json:"clause_id,omitempty"`
	Title      string `json:"title,omitempty"`
	Level      int    `json:"level,omitempty"`
	ParentID   string `json:"parent_id,omitempty"`
	FullText   string `json:"full_text,omitempty"`
	SourceFile string `json:"source_file,omitempty"`
	ChunkIndex int    `json:"chunk_index,omitempty"`

	// Requirement
	RequirementType string          `json:"requirement_type,omitempty"`
	Keyword         string          `json:"keyword,omitempty"`
	ParentClause    string          `json:"parent_clause,omitempty"`
	ObligationLevel ObligationLevel `json:"obligation_level,omitempty"`

	// Text is the clause preview or the full requirement statement.
	Text     string `json:"text,omitempty"`
	TextHash string `json:"text_hash,omitempty"`
}

// Edge is a directed, labeled connection between two node ids.
type Edge struct {
	Source       string       `json:"source"`
	Target       string       `json:"target"`
	Relationship Relationship `json:"relationship"`
}

// Fingerprint returns a short fixed-length BLAKE2b digest of text, hex encoded.
// It identifies content for change tracking and is not a security primitive.
func Fingerprint(text string) string {
	h, _ := blake2b.New(fingerprintSize, nil)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Preview returns at most PreviewLength characters of text.
func Preview(text string) string {
	if len(text) <= PreviewLength {
		return text
	}
	runes := []rune(text)
	if len(runes) <= PreviewLength {
		return text
	}
	return string(runes[:PreviewLength])
}

// StandardID returns the node id of a document's root node.
func StandardID(documentID string) string {
	return "STANDARD_" + escapeSegment(documentID)
}

// ClauseID returns the deterministic node id of a chunk's clause node.
// Ids are "/"-joined segments and each identifier is percent-escaped, so
// distinct (document, chunk) pairs never share an id.
func ClauseID(documentID, chunkID string) string {
	return escapeSegment(documentID) + "/CLAUSE/" + escapeSegment(chunkID)
}

// RequirementID returns the deterministic node id of the ordinal-th (1-based)
// requirement of a chunk.
func RequirementID(documentID, chunkID string, ordinal int) string {
	return fmt.Sprintf("%s/REQ/%s/%02d", escapeSegment(documentID), escapeSegment(chunkID), ordinal)
}

// escapeSegment escapes "/", "\", "%" and whitespace among others; the
// result never contains "/".
func escapeSegment(id string) string {
	return url.PathEscape(id)
}

// StandardLabel turns a document id into a human readable label.
func StandardLabel(documentID string) string {
	return strings.ReplaceAll(documentID, "_", " ")
}

// Metadata summarizes one completed build.
type Metadata struct {
	CreatedAt     time.Time `json:"created_at"`
	NodeCount     int       `json:"node_count"`
	EdgeCount     int       `json:"edge_count"`
	DocumentCount int       `json:"document_count"`
	ChunkCount    int       `json:"chunk_count"`
}
