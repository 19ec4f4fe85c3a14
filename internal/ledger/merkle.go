package ledger

import "lukechampine.com/blake3"

// MerkleProof records everything needed to recompute a root from one
// leaf: its index, the total leaf count, and the sibling hashes from
// leaf to root (spec.md §4.11).
type MerkleProof struct {
	Index    int
	Total    int
	Siblings [][32]byte
}

// hashLeaf hashes one leaf's raw bytes.
func hashLeaf(b []byte) [32]byte {
	return blake3.Sum256(b)
}

// HashLeafBytes is the exported form of hashLeaf, for packages (like
// translog) that need to hash their own leaves the same way the
// packer hashes files.
func HashLeafBytes(b []byte) [32]byte {
	return hashLeaf(b)
}

// hashPair combines two sibling hashes into their parent, per spec.md
// §4.11: BLAKE3(left || right).
func hashPair(left, right [32]byte) [32]byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, left[:]...)
	buf = append(buf, right[:]...)
	return blake3.Sum256(buf)
}

// MerkleRoot computes the canonical BLAKE3 Merkle root over leaves in
// order. An odd count at any level pairs the last element with itself
// (spec.md §4.11).
func MerkleRoot(leaves [][32]byte) [32]byte {
	if len(leaves) == 0 {
		return blake3.Sum256(nil)
	}
	level := leaves
	for len(level) > 1 {
		next := make([][32]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, hashPair(level[i], level[i+1]))
			} else {
				next = append(next, hashPair(level[i], level[i]))
			}
		}
		level = next
	}
	return level[0]
}

// ProofForLeaf builds a MerkleProof for the leaf at index, walking each
// level from leaf to root and recording the sibling it was combined
// with (spec.md §4.11 `proof_for_statement`).
func ProofForLeaf(leaves [][32]byte, index int) (MerkleProof, bool) {
	if index < 0 || index >= len(leaves) {
		return MerkleProof{}, false
	}
	proof := MerkleProof{Index: index, Total: len(leaves)}
	level := leaves
	pos := index
	for len(level) > 1 {
		var sibling [32]byte
		if pos%2 == 0 {
			if pos+1 < len(level) {
				sibling = level[pos+1]
			} else {
				sibling = level[pos]
			}
		} else {
			sibling = level[pos-1]
		}
		proof.Siblings = append(proof.Siblings, sibling)

		next := make([][32]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, hashPair(level[i], level[i+1]))
			} else {
				next = append(next, hashPair(level[i], level[i]))
			}
		}
		level = next
		pos /= 2
	}
	return proof, true
}

// VerifyProof recomputes the root from leaf using proof: at each level
// the bit of index decides whether the accumulator is the left or
// right operand when combined with the next sibling (spec.md §4.11
// `verify_proof`).
func VerifyProof(leaf [32]byte, proof MerkleProof) [32]byte {
	acc := leaf
	idx := proof.Index
	for _, sibling := range proof.Siblings {
		if idx%2 == 0 {
			acc = hashPair(acc, sibling)
		} else {
			acc = hashPair(sibling, acc)
		}
		idx /= 2
	}
	return acc
}
