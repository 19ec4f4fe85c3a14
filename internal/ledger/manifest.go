package ledger

import (
	kdl "github.com/sblinch/kdl-go"
)

// manifestDoc is the struct marshaled to/from manifest.kdl, mirroring
// the node-per-field shape the pack's own KDL config reader uses
// (grounded in standardbeagle-lci's .lci.kdl loader).
type manifestDoc struct {
	Name      string   `kdl:"name"`
	Version   string   `kdl:"version"`
	Binaries  []string `kdl:"binaries,omitempty"`
	Libraries []string `kdl:"libraries,omitempty"`
	Headers   []string `kdl:"headers,omitempty"`
	Data      []string `kdl:"data,omitempty"`
}

// RenderManifest encodes a ProgramFiles description into manifest.kdl
// bytes (spec.md §4.9).
func RenderManifest(p ProgramFiles) ([]byte, error) {
	doc := manifestDoc{
		Name:      p.Name,
		Version:   p.Version,
		Binaries:  p.Binaries,
		Libraries: p.Libraries,
		Headers:   p.Headers,
		Data:      p.Data,
	}
	return kdl.Marshal(doc)
}

// ParseManifest decodes manifest.kdl bytes back into a ProgramFiles.
func ParseManifest(data []byte) (ProgramFiles, error) {
	var doc manifestDoc
	if err := kdl.Unmarshal(data, &doc); err != nil {
		return ProgramFiles{}, err
	}
	return ProgramFiles{
		Name:      doc.Name,
		Version:   doc.Version,
		Binaries:  doc.Binaries,
		Libraries: doc.Libraries,
		Headers:   doc.Headers,
		Data:      doc.Data,
	}, nil
}
