// Package audit implements the local hash-chained audit ledger at
// ~/.hinge/ledger.jsonl (spec.md §6.2): one JSON object per line,
// chained via prev_hash/entry_hash so any entry's integrity depends on
// every entry before it.
package audit

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/mod/semver"

	"github.com/janus-lang/janus/internal/ledger"
)

// Entry is one audit-ledger line (spec.md §6.2).
type Entry struct {
	ID        string `json:"id"`
	Op        string `json:"op"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	Path      string `json:"path"`
	Hash      string `json:"hash"`
	SigsValid int    `json:"sigs_valid"`
	SigsTotal int    `json:"sigs_total"`
	TS        int64  `json:"ts"`
	PrevHash  string `json:"prev_hash"`
	EntryHash string `json:"entry_hash"`
}

// Ledger is the audit log backed by a single append-only file.
type Ledger struct {
	Path string
}

// Open binds a Ledger to path, creating an empty file if absent.
func Open(path string) (*Ledger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", path, err)
	}
	return &Ledger{Path: path}, nil
}

// entryHash computes BLAKE3(op|name|version|path|hash|sigs_valid|
// sigs_total|ts|prev_hash), per spec.md §6.2.
func entryHash(op, name, version, path, hash string, sigsValid, sigsTotal int, ts int64, prevHash string) string {
	fields := []string{
		op, name, version, path, hash,
		strconv.Itoa(sigsValid), strconv.Itoa(sigsTotal),
		strconv.FormatInt(ts, 10), prevHash,
	}
	sum := ledger.HashLeafBytes([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:])
}

// Append records one audit entry, chaining it to the ledger's current
// last entry_hash.
func (l *Ledger) Append(op, name, version, path, hash string, sigsValid, sigsTotal int, ts int64) (Entry, error) {
	entries, err := l.Entries()
	if err != nil {
		return Entry{}, err
	}
	prevHash := ""
	if len(entries) > 0 {
		prevHash = entries[len(entries)-1].EntryHash
	}

	e := Entry{
		ID:        uuid.New().String(),
		Op:        op,
		Name:      name,
		Version:   version,
		Path:      path,
		Hash:      hash,
		SigsValid: sigsValid,
		SigsTotal: sigsTotal,
		TS:        ts,
		PrevHash:  prevHash,
	}
	e.EntryHash = entryHash(op, name, version, path, hash, sigsValid, sigsTotal, ts, prevHash)

	line, err := json.Marshal(e)
	if err != nil {
		return Entry{}, fmt.Errorf("audit: marshal entry: %w", err)
	}

	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return Entry{}, fmt.Errorf("audit: append: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(string(line) + "\n"); err != nil {
		return Entry{}, fmt.Errorf("audit: append: %w", err)
	}
	return e, nil
}

// Entries reads every entry of the ledger, in storage order.
func (l *Ledger) Entries() ([]Entry, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("audit: read %s: %w", l.Path, err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("audit: parse entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit: scan %s: %w", l.Path, err)
	}
	return entries, nil
}

// VerifyChain checks that every entry's entry_hash matches its
// recomputation and that prev_hash correctly links to its predecessor.
func (l *Ledger) VerifyChain() (bool, error) {
	entries, err := l.Entries()
	if err != nil {
		return false, err
	}
	prevHash := ""
	for _, e := range entries {
		if e.PrevHash != prevHash {
			return false, nil
		}
		want := entryHash(e.Op, e.Name, e.Version, e.Path, e.Hash, e.SigsValid, e.SigsTotal, e.TS, e.PrevHash)
		if e.EntryHash != want {
			return false, nil
		}
		prevHash = e.EntryHash
	}
	return true, nil
}

// ForPackage returns every entry for name, ordered by semantic version
// (spec.md is silent on version ordering for the audit ledger; this
// pack records package versions as semver, so entries for the same
// name are ordered with golang.org/x/mod/semver.Compare rather than a
// plain string sort, falling back to append order for non-semver
// versions).
func (l *Ledger) ForPackage(name string) ([]Entry, error) {
	entries, err := l.Entries()
	if err != nil {
		return nil, err
	}
	var matched []Entry
	for _, e := range entries {
		if e.Name == name {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		vi, vj := normalizeSemver(matched[i].Version), normalizeSemver(matched[j].Version)
		if semver.IsValid(vi) && semver.IsValid(vj) {
			return semver.Compare(vi, vj) < 0
		}
		return false
	})
	return matched, nil
}

func normalizeSemver(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
