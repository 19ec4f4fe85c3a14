// Package translog implements the package manager's transparency log:
// an append-only, one-JSON-statement-per-line file with a Merkle root
// over its lines (spec.md §4.11).
package translog

import (
	"bufio"
	"fmt"
	"os"

	"github.com/janus-lang/janus/internal/ledger"
)

// Log is an append-only transparency log backed by a single file.
type Log struct {
	Path string
}

// Open returns a Log bound to path, creating an empty file if absent.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("translog: open %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("translog: open %s: %w", path, err)
	}
	return &Log{Path: path}, nil
}

// Append opens the log for append, writes one line, and terminates it
// with a single '\n' (spec.md §4.11 append).
func (l *Log) Append(statement string) error {
	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("translog: append: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(statement + "\n"); err != nil {
		return fmt.Errorf("translog: append: %w", err)
	}
	return nil
}

// Lines reads every line of the log, in storage order.
func (l *Log) Lines() ([]string, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("translog: read %s: %w", l.Path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("translog: scan %s: %w", l.Path, err)
	}
	return lines, nil
}

// ComputeRoot recomputes the canonical BLAKE3 Merkle root over the
// log's current line set, one leaf per line (spec.md §4.11
// compute_root).
func (l *Log) ComputeRoot() ([32]byte, error) {
	lines, err := l.Lines()
	if err != nil {
		return [32]byte{}, err
	}
	return ledger.MerkleRoot(leavesOf(lines)), nil
}

// ProofForStatement returns the inclusion proof for the first line
// matching statement, or false if it is not present (spec.md §4.11
// proof_for_statement).
func (l *Log) ProofForStatement(statement string) (ledger.MerkleProof, bool, error) {
	lines, err := l.Lines()
	if err != nil {
		return ledger.MerkleProof{}, false, err
	}
	index := -1
	for i, line := range lines {
		if line == statement {
			index = i
			break
		}
	}
	if index == -1 {
		return ledger.MerkleProof{}, false, nil
	}
	proof, ok := ledger.ProofForLeaf(leavesOf(lines), index)
	return proof, ok, nil
}

// VerifyProof recomputes the root for statement under proof (spec.md
// §4.11 verify_proof).
func VerifyProof(statement string, proof ledger.MerkleProof) [32]byte {
	return ledger.VerifyProof(leafOf(statement), proof)
}

func leafOf(line string) [32]byte {
	return ledger.HashLeafBytes([]byte(line))
}

func leavesOf(lines []string) [][32]byte {
	out := make([][32]byte, len(lines))
	for i, line := range lines {
		out[i] = leafOf(line)
	}
	return out
}
