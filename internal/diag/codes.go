// Package diag provides PEPL's structured diagnostics: numbered error
// codes, source spans, categories, and a stable JSON encoding.
//
// The code ranges mirror the taxonomy in spec.md §4.1: E100-E199 syntax,
// E200-E299 type, E300-E399 invariant, E400-E499 capability/UI, E500-E599
// scope, E600-E699 structural.
package diag

// Category groups diagnostics by the phase that produced them.
type Category string

const (
	CategorySyntax     Category = "syntax"
	CategoryType       Category = "type"
	CategoryInvariant  Category = "invariant"
	CategoryCapability Category = "capability"
	CategoryScope      Category = "scope"
	CategoryStructural Category = "structural"
)

// Severity distinguishes fatal diagnostics from advisory ones.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Error codes. Each constant documents the condition that produces it;
// see spec.md §4, §4.3, §4.4 for the authoritative behavior.
const (
	// Lexical / syntax (E100-E199)
	E100UnknownChar       = "E100" // unknown byte in source
	E101SetUndeclared     = "E101" // set targets an undeclared state field
	E102UnexpectedToken   = "E102" // parser expected one token kind, found another

	// Type (E200-E299)
	E200AnyAnnotation  = "E200" // `any` used in a user type annotation
	E201ArgTypeMismatch = "E201" // qualified call argument type mismatch
	E202ArityMismatch   = "E202" // qualified call arity mismatch
	E210NonExhaustive   = "E210" // non-exhaustive match

	// Invariant / derived structure (E300-E399)
	E300InvariantRefersDerived = "E300" // invariant expression references a derived field
	E301DerivedCycle           = "E301" // derived field cycle / forward reference

	// Capability / UI (E400-E499)
	E400CapabilityNotDeclared = "E400" // capability call not covered by a declared capability
	E401CapabilityUnavailable = "E401" // capability declared but unavailable to this call site
	E402UnknownComponent      = "E402" // unknown UI component name

	// Scope / recursion (E500-E599)
	E500Shadowing        = "E500" // shadowing of an outer binding
	E501SetOutsideAction = "E501" // set used outside an action body
	E502Recursion        = "E502" // recursion cycle among actions/views/lambdas
	E503UnknownIdentifier = "E503" // reference to a name with no binding in scope, state, derived, or credentials

	// Structural / ordering (E600-E699)
	E600BlockOrder      = "E600" // space body blocks out of declared order
	E601SetOnDerived    = "E601" // set targets a derived field
	E602LambdaBody      = "E602" // lambda body is a bare expression, not a block
	E603BlockComment    = "E603" // block comment `/* ... */` used (not supported)
	E604UnknownCredential = "E604" // reference to an undeclared credential
	E605CredentialAssign = "E605" // assignment to a credential
	E606EmptyState      = "E606" // `state {}` with zero fields
	E607StructuralLimit = "E607" // a structural depth/count limit was exceeded

	// Warnings (never block codegen; SPEC_FULL.md §12)
	W001DeadDeclaration          = "W001" // action/view declared but never referenced
	W002UnusedOptionalCapability = "W002" // declared optional capability never called
)
