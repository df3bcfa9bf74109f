package ports

// Handler rewrites documents of one format.
// Production code uses the pdfdoc, csvtable, xmltree and xptfile adapters;
// tests use MockHandler.
type Handler interface {
	// Transform writes a copy of path with sub applied beside the original
	// and returns the copy's path. The source file is never modified.
	Transform(path string, sub Substitution) (string, error)
}
