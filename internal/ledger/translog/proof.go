package translog

import (
	"encoding/hex"
	"encoding/json"

	"github.com/janus-lang/janus/internal/ledger"
)

// ExportedProof is the JSON shape callers may request after verifying
// a package (spec.md §4.11 Exported proof).
type ExportedProof struct {
	Index          int      `json:"index"`
	Total          int      `json:"total"`
	Siblings       []string `json:"siblings"`
	Root           string   `json:"root"`
	CheckpointRoot string   `json:"checkpoint_root"`
	Verified       bool     `json:"verified"`
}

// ExportProof packages a MerkleProof and recomputed root alongside a
// checkpoint root for comparison, and marshals it to JSON.
func ExportProof(statement string, proof ledger.MerkleProof, checkpointRoot [32]byte) ([]byte, error) {
	root := VerifyProof(statement, proof)
	siblings := make([]string, len(proof.Siblings))
	for i, s := range proof.Siblings {
		siblings[i] = hex.EncodeToString(s[:])
	}
	out := ExportedProof{
		Index:          proof.Index,
		Total:          proof.Total,
		Siblings:       siblings,
		Root:           hex.EncodeToString(root[:]),
		CheckpointRoot: hex.EncodeToString(checkpointRoot[:]),
		Verified:       root == checkpointRoot,
	}
	return json.MarshalIndent(out, "", "  ")
}
