package index

// Language maps the node kinds of one grammar onto index entries.
type Language struct {
	// Name identifies the language.
	Name string

	// Scopes maps node kinds that open a lexical scope.
	Scopes map[string]ScopeKind

	// Symbols maps node kinds that declare a symbol.
	Symbols map[string]SymbolKind

	// MethodContainers lists the node kinds whose function children are
	// methods rather than free functions.
	MethodContainers map[string]bool

	// FunctionKind is the node kind of a function declaration.
	FunctionKind string

	// ImplKind is the node kind named after the type it implements.
	ImplKind string

	// Brackets lists the pairs to match, in priority order.
	Brackets []BracketPair

	// AngleContainers lists the node kinds whose "<" and ">" children
	// are brackets. Elsewhere they are comparison operators.
	AngleContainers map[string]bool
}

// BracketPair is an open/close token pair.
type BracketPair struct {
	Open  string
	Close string
	Kind  BracketKind
}

// Rust is the default language table, using tree-sitter-rust node names.
var Rust = &Language{
	Name: "rust",
	Scopes: map[string]ScopeKind{
		"function_item":      ScopeFunction,
		"block":              ScopeBlock,
		"if_expression":      ScopeIf,
		"else_clause":        ScopeElse,
		"match_expression":   ScopeMatch,
		"match_arm":          ScopeMatchArm,
		"for_expression":     ScopeFor,
		"while_expression":   ScopeWhile,
		"loop_expression":    ScopeLoop,
		"closure_expression": ScopeClosure,
		"impl_item":          ScopeImpl,
		"trait_item":         ScopeTrait,
	},
	Symbols: map[string]SymbolKind{
		"function_item":    SymbolFunction,
		"struct_item":      SymbolStruct,
		"enum_item":        SymbolEnum,
		"trait_item":       SymbolTrait,
		"impl_item":        SymbolImpl,
		"const_item":       SymbolConst,
		"static_item":      SymbolStatic,
		"type_item":        SymbolTypeAlias,
		"mod_item":         SymbolModule,
		"macro_definition": SymbolMacro,
	},
	MethodContainers: map[string]bool{
		"declaration_list": true,
	},
	FunctionKind: "function_item",
	ImplKind:     "impl_item",
	Brackets: []BracketPair{
		{Open: "(", Close: ")", Kind: BracketParen},
		{Open: "[", Close: "]", Kind: BracketSquare},
		{Open: "{", Close: "}", Kind: BracketBrace},
		{Open: "<", Close: ">", Kind: BracketAngle},
	},
	AngleContainers: map[string]bool{
		"type_arguments":  true,
		"type_parameters": true,
	},
}

// isAngle reports whether p is the angle pair, which only counts inside
// angle containers.
func (p BracketPair) isAngle() bool {
	return p.Kind == BracketAngle
}
