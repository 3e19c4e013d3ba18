package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/poiesic/normgraph/core"
)

var sentences = []string{
	"Cabling shall be installed in pathways that protect it from mechanical damage.",
	"Balanced cabling should be separated from power cabling by the minimum distance.",
	"Pathway systems shall be earthed and bonded at both ends.",
	"The installer shall record the location of every telecommunications outlet.",
	"Optical fibre cabling may be installed in the same pathway as copper cabling.",
	"The bend radius of installed cables shall not be less than the manufacturer's minimum.",
	"Cable trays should be accessible for inspection and maintenance.",
	"Labels shall be durable and legible for the life of the installation.",
	"Patch panels may be mounted in racks or wall-mounted enclosures.",
	"Screened cabling shall have the screen bonded to the equipotential bonding network.",
	"Fire barriers should be restored after cables pass through them.",
	"Distributors shall be located in rooms with controlled environmental conditions.",
	"The test results should be stored together with the as-built documentation.",
	"A bonding conductor shall connect each rack to the local earth bar.",
	"Cable lengths should allow for re-termination during maintenance.",
	"Ducts may be shared between services when segregation is maintained.",
	"Equipment rooms shall provide adequate lighting for installation work.",
	"The channel performance shall be verified after installation.",
	"Outlets should be placed so that cords do not cross walkways.",
	"Splices in optical fibre cabling may be fusion or mechanical splices.",
}

var (
	outDir       = flag.String("out", "./chunks", "Directory to write the corpus to")
	documents    = flag.Int("documents", 4, "Number of documents to generate")
	chunksPerDoc = flag.Int("chunks", 25, "Number of chunks per document")
	seed         = flag.Uint64("seed", 1, "Random seed; the same seed produces the same corpus")
	seedFileName = flag.String("sentences", "", "Optional file with one sentence per line")
)

var keywords = []string{"shall", "should", "may"}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}, nil
}

// linesFromSlice returns an iterator over a slice of strings.
func linesFromSlice(lines []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range lines {
			if !yield(line) {
				return
			}
		}
	}
}

// documentIDs returns n document ids in the EN 5017x family.
func documentIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		if i%2 == 1 {
			ids[i] = fmt.Sprintf("EN_%d-%d", 50173+i/2, 1+i%3)
		} else {
			ids[i] = fmt.Sprintf("EN_%d", 50173+i/2)
		}
	}
	return ids
}

// citation formats a document id the way it is quoted in running text.
func citation(documentID string) string {
	return strings.ReplaceAll(documentID, "_", " ")
}

// generateDocument builds count chunks for doc. Every fourth chunk opens a
// new top-level clause; the rest are its subclauses.
func generateDocument(rng *rand.Rand, doc string, others []string, pool []string, count int) []*core.Chunk {
	chunks := make([]*core.Chunk, 0, count)
	top, sub := 0, 0
	for i := 0; i < count; i++ {
		chunk := &core.Chunk{DocumentID: doc}
		if i%4 == 0 {
			top++
			sub = 0
			chunk.ChunkID = fmt.Sprint(top)
			chunk.Level = 1
		} else {
			sub++
			chunk.ChunkID = fmt.Sprintf("%d.%d", top, sub)
			chunk.ParentID = fmt.Sprint(top)
			chunk.Level = 2
		}
		chunk.Title = fmt.Sprintf("Clause %s", chunk.ChunkID)

		for n := 1 + rng.IntN(3); n > 0; n-- {
			text := pool[rng.IntN(len(pool))]
			if len(others) > 0 && rng.IntN(5) == 0 {
				text += " See " + citation(others[rng.IntN(len(others))]) + "."
			}
			chunk.Content = append(chunk.Content, core.Fragment{Text: text, Type: "paragraph", Page: 1 + i/3})
		}

		if rng.IntN(2) == 0 {
			keyword := keywords[rng.IntN(len(keywords))]
			chunk.Requirements = append(chunk.Requirements, core.RequirementRecord{
				Text:    chunk.Content[0].Text,
				Keyword: keyword,
				Type:    "installation",
			})
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// writeDocument writes one JSON file per chunk under root/doc.
func writeDocument(root, doc string, chunks []*core.Chunk) error {
	dir := filepath.Join(root, doc)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for i, chunk := range chunks {
		data, err := json.MarshalIndent(chunk, "", "  ")
		if err != nil {
			return err
		}
		name := filepath.Join(dir, fmt.Sprintf("%04d.json", i+1))
		if err := os.WriteFile(name, data, 0644); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	flag.Parse()

	var source iter.Seq[string]
	if *seedFileName != "" {
		var err error
		source, err = linesFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		source = linesFromSlice(sentences)
	}
	pool := slices.Collect(source)
	if len(pool) == 0 {
		panic("no sentences to generate chunks from")
	}

	rng := rand.New(rand.NewPCG(*seed, *seed))
	ids := documentIDs(*documents)
	for _, doc := range ids {
		others := slices.DeleteFunc(slices.Clone(ids), func(id string) bool { return id == doc })
		chunks := generateDocument(rng, doc, others, pool, *chunksPerDoc)
		if err := writeDocument(*outDir, doc, chunks); err != nil {
			panic(err)
		}
		slog.Info("generated document", "document", doc, "chunks", len(chunks))
	}
	slog.Info("corpus written", "path", *outDir, "documents", len(ids))
}
