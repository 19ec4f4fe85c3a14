package sign

// pqcleanBackend names the post-quantum Dilithium3 backend from
// spec.md §4.10. No post-quantum signature library appears anywhere in
// the retrieval pack (DESIGN.md), so this stays a stub that reports
// itself unavailable rather than fabricating a dependency.
type pqcleanBackend struct{}

func (pqcleanBackend) Name() string { return "pqclean" }

func (pqcleanBackend) GenerateKeypair() (public, private []byte, err error) {
	return nil, nil, ErrBackendUnavailable
}

func (pqcleanBackend) DerivePublicKey(private []byte) ([]byte, error) {
	return nil, ErrBackendUnavailable
}

func (pqcleanBackend) Sign(private, message []byte) ([]byte, error) {
	return nil, ErrBackendUnavailable
}

func (pqcleanBackend) Verify(public, message, signature []byte) bool {
	return false
}
