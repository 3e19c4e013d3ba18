// Package fs implements storage.ChunkRepository over a directory tree.
//
// The expected layout is one subdirectory per document, named by document id,
// holding one record per chunk:
//
//	chunks/
//	  EN_50173/
//	    001.json
//	    002.yaml
//	  EN_50174-2/
//	    001.json
//
// Records may be JSON or YAML. Documents and files are visited in lexical order.
package fs
