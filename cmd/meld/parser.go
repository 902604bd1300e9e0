package main

// unimplementedParser satisfies capability.Parser without providing a
// real grammar. Parsing meld source text into directive.ParsedFile is
// explicitly out of scope for the core (spec §1): a host embedding
// this interpreter is expected to supply its own grammar/parser, or a
// pre-built directive.ParsedFile constructed by other means (e.g. a
// future `pkgs/parser` sibling module). This stub exists only so
// `cmd/meld` links and can demonstrate the wiring end-to-end against a
// caller-supplied directive.ParsedFile rather than raw text.
type unimplementedParser struct{}

func (unimplementedParser) Parse(source []byte, file string) (any, error) {
	return nil, &parserNotImplementedError{File: file}
}

type parserNotImplementedError struct{ File string }

func (e *parserNotImplementedError) Error() string {
	return "meld: no grammar/parser wired for " + e.File + " (parsing is out of scope for the core interpreter; supply a capability.Parser)"
}
