package symbols

// keywords is the closed set of Python reserved words (spec §4.5 point 3).
// No bundled top-level symbol may carry one of these as its final name.
var keywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
}

// shadowableBuiltins are names the bundle should not rebind at the top
// level even though Python permits it, since shadowing one changes the
// behavior of every unqualified use of the builtin later in the bundle.
var shadowableBuiltins = map[string]bool{
	"list": true, "dict": true, "set": true, "tuple": true, "str": true,
	"int": true, "float": true, "bool": true, "bytes": true, "object": true,
	"type": true, "len": true, "range": true, "print": true, "open": true,
	"id": true, "map": true, "filter": true, "zip": true, "super": true,
	"property": true, "staticmethod": true, "classmethod": true,
	"Exception": true, "BaseException": true, "input": true, "iter": true,
	"next": true, "enumerate": true, "sorted": true, "reversed": true,
	"all": true, "any": true, "vars": true, "format": true, "hash": true,
}

// isReserved reports whether name must not be used as a final bundle name
// without an extra disambiguating suffix.
func isReserved(name string) bool {
	return keywords[name] || shadowableBuiltins[name]
}
