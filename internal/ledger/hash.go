package ledger

import "encoding/hex"

func hexEncode(b []byte) string {
	return hex.EncodeToString(b)
}

// KeyID derives the first-16-hex-char key identifier from a public
// key's BLAKE3 hash, per spec.md §3.3/§4.10.
func KeyID(publicKey []byte) string {
	sum := hashLeaf(publicKey)
	return hexEncode(sum[:])[:16]
}
