package grammar

type SemanticError struct {
	message string
}

func newSemanticError(message string) *SemanticError {
	return &SemanticError{
		message: message,
	}
}

func (e *SemanticError) Error() string {
	return e.message
}

var (
	semErrNoProduction        = newSemanticError("a grammar needs at least one production")
	semErrUndefinedStart      = newSemanticError("undefined start symbol")
	semErrUndefinedSym        = newSemanticError("undefined symbol")
	semErrReservedName        = newSemanticError("reserved symbol name")
	semErrEmptyLHS            = newSemanticError("a rule needs a left-hand side")
	semErrNoAlternative       = newSemanticError("a rule needs at least one alternative")
	semErrDuplicateProduction = newSemanticError("duplicate production")
	semErrDuplicateName       = newSemanticError("duplicate names are not allowed between terminals and non-terminals")
	semErrDuplicateAssoc      = newSemanticError("associativity and precedence cannot be specified multiple times for a symbol")
	semErrInvalidAssoc        = newSemanticError("invalid associativity")
	semErrAssocNonTerminal    = newSemanticError("associativity can be specified only for terminals")
	semErrUndefinedPrec       = newSemanticError("a symbol used as a precedence has no precedence")
	semErrUnusedProduction    = newSemanticError("unused production")
	semErrNonProductive       = newSemanticError("a non-terminal derives no terminal string")
	semErrUnclosedQuote       = newSemanticError("unclosed quoted symbol")
	semErrInvalidPrecMarker   = newSemanticError("%prec needs exactly one symbol")
	semErrInvalidLexRule      = newSemanticError("invalid lexical rule")
)
