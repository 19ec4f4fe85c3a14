package translog

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/janus-lang/janus/internal/ledger/sign"
)

// Statement is the JSON shape appended to the log by Publish (spec.md
// §4.11): {hash, keyid, ts}.
type Statement struct {
	Hash  string `json:"hash"`
	KeyID string `json:"keyid"`
	TS    int64  `json:"ts"`
}

// Publish builds a statement, appends it, and returns the log's new
// root.
func (l *Log) Publish(hashHex, keyID string, ts int64) ([32]byte, error) {
	stmt := Statement{Hash: hashHex, KeyID: keyID, TS: ts}
	line, err := json.Marshal(stmt)
	if err != nil {
		return [32]byte{}, fmt.Errorf("translog: marshal statement: %w", err)
	}
	if err := l.Append(string(line)); err != nil {
		return [32]byte{}, err
	}
	return l.ComputeRoot()
}

// Checkpoint is the JSON file written by Checkpoint: {root, ts[, sig]}
// (spec.md §4.11).
type Checkpoint struct {
	Root string `json:"root"`
	TS   int64  `json:"ts"`
	Sig  string `json:"sig,omitempty"`
}

// checkpointMessage is the exact byte sequence Checkpoint's signature
// (and checkpoint-verify) covers: root-bytes || ':' || ts-ascii.
func checkpointMessage(root [32]byte, ts int64) []byte {
	msg := make([]byte, 0, 32+1+20)
	msg = append(msg, root[:]...)
	msg = append(msg, ':')
	msg = append(msg, []byte(strconv.FormatInt(ts, 10))...)
	return msg
}

// WriteCheckpoint computes the log's current root and writes a
// checkpoint file at path, optionally signed with backend/private.
func (l *Log) WriteCheckpoint(path string, ts int64, backend sign.Signer, private []byte) (Checkpoint, error) {
	root, err := l.ComputeRoot()
	if err != nil {
		return Checkpoint{}, err
	}
	cp := Checkpoint{Root: hex.EncodeToString(root[:]), TS: ts}
	if backend != nil && private != nil {
		sig, err := backend.Sign(private, checkpointMessage(root, ts))
		if err != nil {
			return Checkpoint{}, fmt.Errorf("translog: sign checkpoint: %w", err)
		}
		cp.Sig = hex.EncodeToString(sig)
	}
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return Checkpoint{}, fmt.Errorf("translog: marshal checkpoint: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Checkpoint{}, fmt.Errorf("translog: write checkpoint %s: %w", path, err)
	}
	return cp, nil
}

// ReadCheckpoint loads a checkpoint file from path.
func ReadCheckpoint(path string) (Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("translog: read checkpoint %s: %w", path, err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("translog: parse checkpoint %s: %w", path, err)
	}
	return cp, nil
}

// VerifyCheckpoint checks cp's signature over root-bytes||':'||ts-ascii
// using public (spec.md §4.11 checkpoint-verify).
func VerifyCheckpoint(backend sign.Signer, public []byte, cp Checkpoint) (bool, error) {
	if cp.Sig == "" {
		return false, fmt.Errorf("translog: checkpoint has no signature")
	}
	rootBytes, err := hex.DecodeString(cp.Root)
	if err != nil || len(rootBytes) != 32 {
		return false, fmt.Errorf("translog: checkpoint root is not a 32-byte hex string")
	}
	var root [32]byte
	copy(root[:], rootBytes)

	sigBytes, err := hex.DecodeString(cp.Sig)
	if err != nil {
		return false, fmt.Errorf("translog: checkpoint signature is not hex: %w", err)
	}
	return backend.Verify(public, checkpointMessage(root, cp.TS), sigBytes), nil
}
