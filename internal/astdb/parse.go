package astdb

// ParseSource is the convenience entry point used by callers that don't
// need to interleave tokenizing/parsing across units by hand: it adds a
// unit, tokenizes it, parses it, and takes a snapshot in one call.
func ParseSource(db *DB, filename string, source []byte, config ParserConfig) (Snapshot, error) {
	id := db.AddUnit(filename, source)
	unit := db.GetUnit(id)

	for _, tok := range Tokenize(unit.Source, unit.Interner) {
		if config.BootstrapMode && !bootstrapAllowed[tok.Kind] {
			return Snapshot{}, bootstrapRejected(tok)
		}
		unit.PushToken(tok)
	}

	if _, err := ParseIntoASTDB(unit, config); err != nil {
		return Snapshot{}, err
	}
	return db.CreateSnapshot(id), nil
}
