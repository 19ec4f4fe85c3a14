package ledger

// ProgramFiles classifies a package's payload by path prefix (spec.md
// §4.9): bin/ -> Binaries, lib/ -> Libraries, include/ -> Headers, else
// Data.
type ProgramFiles struct {
	Name      string
	Version   string
	Binaries  []string
	Libraries []string
	Headers   []string
	Data      []string
}

// PackageLayout is the in-memory result of Pack, before it is written
// out in one of the three on-disk formats (spec.md §3.3/§4.9).
type PackageLayout struct {
	RootPath string
	Program  ProgramFiles

	Manifest []byte // manifest.kdl bytes, once rendered
	SBOM     []byte // optional CycloneDX-lite SBOM JSON

	MerkleRoot [32]byte
	HasRoot    bool
}

// Format selects one of the three package archive layouts write_package
// supports (spec.md §4.9).
type Format int

const (
	FormatJPK Format = iota
	FormatTarZst
	FormatZip
)

func (f Format) String() string {
	switch f {
	case FormatJPK:
		return "jpk"
	case FormatTarZst:
		return "tar.zst"
	case FormatZip:
		return "zip"
	default:
		return "unknown"
	}
}
