// Package goformula compiles and evaluates textual formulas.
//
// A formula is an expression over typed scalar values (numeric, integer,
// boolean, string, binary) with named parameters, infix operators and a
// registry of built-in functions:
//
//	round(price * (1 + vat.rate), 2)
//
// Compilation runs the full pipeline: parse, bidirectional type inference,
// constant folding, and code generation into a reusable artifact. Artifacts
// are stateless and safe for concurrent invocation.
//
// # Quick Start
//
//	// Simple evaluation
//	result, err := goformula.Eval("a + b * 2", map[string]interface{}{
//	    "a": 1, "b": 2,
//	})
//
//	// Compile once, evaluate many times
//	f, err := goformula.Compile("round(price * 1.22, 2)")
//	total1, _ := f.Eval(map[string]interface{}{"price": 10.0})
//	total2, _ := f.Eval(map[string]interface{}{"price": 99.9})
//
//	// Tolerant comparison
//	f, err := goformula.Compile("a = b",
//	    goformula.WithTolerance(types.Tolerance{Epsilon: 1e-9}),
//	)
//
// # More Information
//
// For detailed documentation, see:
//   - Parser: github.com/sandrolain/goformula/pkg/parser
//   - Nodes: github.com/sandrolain/goformula/pkg/ast
//   - Compiler: github.com/sandrolain/goformula/pkg/compiler
//   - Functions: github.com/sandrolain/goformula/pkg/functions
package goformula

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/sandrolain/goformula/pkg/ast"
	"github.com/sandrolain/goformula/pkg/cache"
	"github.com/sandrolain/goformula/pkg/compiler"
	"github.com/sandrolain/goformula/pkg/numeric"
	"github.com/sandrolain/goformula/pkg/parser"
	"github.com/sandrolain/goformula/pkg/types"
)

// Version returns the current version of GoFormula.
func Version() string {
	return "v0.1.0-dev"
}

// DefaultCacheSize is the capacity of the shared evaluation cache used by
// Eval when caching is enabled.
const DefaultCacheSize = 256

// Options configures compilation and evaluation.
type Options struct {
	// Tolerance selects tolerant comparison semantics; nil means exact.
	Tolerance *types.Tolerance

	// Caching enables the shared artifact cache for Eval.
	Caching bool

	// CacheSize sets the capacity of the shared cache. Only the first
	// cached evaluation sizes the cache; later values are ignored.
	CacheSize int

	// Logger receives pipeline debug logging.
	Logger *slog.Logger

	// MaxDepth bounds both parser recursion and compiled tree height.
	MaxDepth int
}

// Option mutates Options.
type Option func(*Options)

// WithTolerance compiles the formula with tolerant comparison semantics.
func WithTolerance(tol types.Tolerance) Option {
	return func(o *Options) {
		o.Tolerance = &tol
	}
}

// WithCaching toggles the shared artifact cache used by Eval.
func WithCaching(enabled bool) Option {
	return func(o *Options) {
		o.Caching = enabled
	}
}

// WithCacheSize sets the capacity of the shared Eval cache.
func WithCacheSize(size int) Option {
	return func(o *Options) {
		o.CacheSize = size
	}
}

// WithLogger sets the structured logger used during compilation.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithMaxDepth bounds the nesting depth accepted by the parser and compiler.
func WithMaxDepth(depth int) Option {
	return func(o *Options) {
		o.MaxDepth = depth
	}
}

func buildOptions(opts []Option) Options {
	options := Options{
		CacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return options
}

// Formula is a compiled formula: the resolved node tree, its parameter
// table, and one executable artifact per tolerance it has been compiled
// with.
//
// A Formula is safe for concurrent evaluation. Rebinding parameter defaults
// through Bind mutates shared state; call sites that need independent
// defaults should Clone first.
type Formula struct {
	source string
	root   ast.Node
	params map[string]*ast.Parameter
	comp   *compiler.Compiler
	tol    *types.Tolerance

	mu        sync.RWMutex
	artifacts map[string]*compiler.Artifact
}

// Compile parses, type-checks and compiles a formula for repeated
// evaluation.
//
// Example:
//
//	f, err := goformula.Compile("min(a, b) * 2")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	v, _ := f.Eval(map[string]interface{}{"a": 3, "b": 2.5})
func Compile(source string, opts ...Option) (*Formula, error) {
	options := buildOptions(opts)
	return compileWith(source, nil, options)
}

// compileWith runs the whole pipeline. When bindings are given (the one-shot
// Eval path) their runtime kinds seed the parameter types before resolution,
// so an otherwise ambiguous formula resolves the way it is about to be
// invoked.
func compileWith(source string, bindings map[string]interface{}, options Options) (*Formula, error) {
	var parseOpts []parser.CompileOption
	if options.MaxDepth > 0 {
		parseOpts = append(parseOpts, parser.WithMaxDepth(options.MaxDepth))
	}
	res, err := parser.Parse(source, parseOpts...)
	if err != nil {
		return nil, err
	}
	if err := seedParameterTypes(res.Parameters, bindings); err != nil {
		return nil, err
	}

	comp := compiler.New(
		compiler.WithLogger(options.Logger),
		compiler.WithMaxDepth(options.MaxDepth),
	)
	root, artifact, err := comp.Build(res.Root, options.Tolerance)
	if err != nil {
		return nil, err
	}

	f := &Formula{
		source:    source,
		root:      root,
		params:    collectParameters(root),
		comp:      comp,
		tol:       options.Tolerance,
		artifacts: map[string]*compiler.Artifact{options.Tolerance.Key(): artifact},
	}
	return f, nil
}

// MustCompile is like Compile but panics if the formula cannot be compiled.
// It simplifies safe initialization of global variables.
func MustCompile(source string, opts ...Option) *Formula {
	f, err := Compile(source, opts...)
	if err != nil {
		panic(fmt.Sprintf("goformula: Compile(%q): %v", source, err))
	}
	return f
}

// Eval is a convenience function that compiles and evaluates a formula in a
// single call. The runtime kinds of the bindings participate in type
// resolution, so `a + b` concatenates when both bindings are strings and adds
// when they are numbers. With WithCaching(true) the compiled artifact is
// reused across calls with the same source, tolerance and binding kinds.
//
// For repeated evaluations of the same formula, use Compile instead.
func Eval(source string, bindings map[string]interface{}, opts ...Option) (interface{}, error) {
	options := buildOptions(opts)

	if options.Caching {
		key := options.Tolerance.Key() + "\x00" + bindingsKey(bindings) + "\x00" + source
		artifact, err := sharedCache(options.CacheSize).GetOrBuild(key, func() (*compiler.Artifact, error) {
			f, err := compileWith(source, bindings, options)
			if err != nil {
				return nil, err
			}
			return f.artifact(options.Tolerance)
		})
		if err != nil {
			return nil, err
		}
		return artifact.Run(bindings)
	}

	f, err := compileWith(source, bindings, options)
	if err != nil {
		return nil, err
	}
	return f.Eval(bindings)
}

// EvalString compiles and evaluates a formula, rendering the result as a
// string.
func EvalString(source string, bindings map[string]interface{}, opts ...Option) (string, error) {
	f, err := compileWith(source, bindings, buildOptions(opts))
	if err != nil {
		return "", err
	}
	return f.EvalString(bindings)
}

// seedParameterTypes fixes parameter types from the binding values a one-shot
// evaluation was given. Integer bindings seed weakly (they fit either numeric
// kind); every other kind is definite.
func seedParameterTypes(params map[string]*ast.Parameter, bindings map[string]interface{}) error {
	for name, p := range params {
		v, ok := bindings[name]
		if !ok {
			continue
		}
		switch numeric.Normalize(v).(type) {
		case int64:
			if err := p.DetermineWeakly(types.NumberTypes); err != nil {
				return err
			}
		case float64:
			if err := p.DetermineStrongly(types.Numeric); err != nil {
				return err
			}
		case bool:
			if err := p.DetermineStrongly(types.Boolean); err != nil {
				return err
			}
		case string:
			if err := p.DetermineStrongly(types.String); err != nil {
				return err
			}
		case []byte:
			if err := p.DetermineStrongly(types.Binary); err != nil {
				return err
			}
		}
	}
	return nil
}

// bindingsKey fingerprints the runtime kinds of the bindings. Two cached
// evaluations share an artifact only when their bindings carry the same
// kinds, since the kinds participate in type resolution.
func bindingsKey(bindings map[string]interface{}) string {
	if len(bindings) == 0 {
		return ""
	}
	parts := make([]string, 0, len(bindings))
	for name, v := range bindings {
		kind := "?"
		switch numeric.Normalize(v).(type) {
		case int64:
			kind = "i"
		case float64:
			kind = "f"
		case bool:
			kind = "b"
		case string:
			kind = "s"
		case []byte:
			kind = "x"
		}
		parts = append(parts, name+"="+kind)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

// Source returns the formula text the Formula was compiled from.
func (f *Formula) Source() string {
	return f.source
}

// ReturnType is the inferred result type of the formula.
func (f *Formula) ReturnType() types.ValueType {
	return f.root.ReturnType()
}

// Root exposes the resolved node tree. The tree must be treated as
// read-only; mutating it invalidates compiled artifacts.
func (f *Formula) Root() ast.Node {
	return f.root
}

// Parameters returns the names of the formula's parameters, sorted.
func (f *Formula) Parameters() []string {
	names := make([]string, 0, len(f.params))
	for name := range f.params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parameter returns the named parameter node, if the formula has one.
func (f *Formula) Parameter(name string) (*ast.Parameter, bool) {
	p, ok := f.params[name]
	return p, ok
}

// Bind sets the default binding of a named parameter. The binding applies to
// every occurrence of the name and persists across evaluations; call-time
// bindings passed to Eval take precedence over it.
func (f *Formula) Bind(name string, value interface{}) error {
	p, ok := f.params[name]
	if !ok {
		return types.Errorf(types.ErrUnboundParameter, "formula has no parameter %q", name)
	}
	p.Bind(value)
	return nil
}

// Eval invokes the formula with the given call-time bindings, using the
// tolerance the formula was compiled with.
func (f *Formula) Eval(bindings map[string]interface{}) (interface{}, error) {
	artifact, err := f.artifact(f.tol)
	if err != nil {
		return nil, err
	}
	return artifact.Run(bindings)
}

// EvalString invokes the formula and renders the result as a string.
func (f *Formula) EvalString(bindings map[string]interface{}) (string, error) {
	artifact, err := f.artifact(f.tol)
	if err != nil {
		return "", err
	}
	return artifact.RunString(bindings)
}

// EvalWith invokes the formula under a different tolerance. The artifact for
// each distinct tolerance is compiled once and kept on the Formula.
func (f *Formula) EvalWith(tol *types.Tolerance, bindings map[string]interface{}) (interface{}, error) {
	artifact, err := f.artifact(tol)
	if err != nil {
		return nil, err
	}
	return artifact.Run(bindings)
}

// Artifact returns the compiled artifact for the formula's own tolerance.
func (f *Formula) Artifact() (*compiler.Artifact, error) {
	return f.artifact(f.tol)
}

// artifact returns the compiled artifact for tol, compiling it on first use.
func (f *Formula) artifact(tol *types.Tolerance) (*compiler.Artifact, error) {
	key := tol.Key()

	f.mu.RLock()
	artifact, ok := f.artifacts[key]
	f.mu.RUnlock()
	if ok {
		return artifact, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if artifact, ok = f.artifacts[key]; ok {
		return artifact, nil
	}
	artifact, err := f.comp.Compile(f.root, tol)
	if err != nil {
		return nil, err
	}
	f.artifacts[key] = artifact
	return artifact, nil
}

// Clone returns an independently owned copy of the formula. Parameter nodes
// aliased in the original stay aliased in the clone, but the clone's
// parameters are distinct from the original's: rebinding one side never
// affects the other. Artifacts are recompiled lazily on the clone.
func (f *Formula) Clone() *Formula {
	root := f.root.DeepClone(ast.NewCloneContext())
	return &Formula{
		source:    f.source,
		root:      root,
		params:    collectParameters(root),
		comp:      f.comp,
		tol:       f.tol,
		artifacts: make(map[string]*compiler.Artifact),
	}
}

// collectParameters walks a tree and indexes its parameter nodes by name.
// The parser shares one node per name, so each name maps to exactly one
// node.
func collectParameters(root ast.Node) map[string]*ast.Parameter {
	params := make(map[string]*ast.Parameter)
	ast.Walk(root, func(n ast.Node) bool {
		if p, ok := n.(*ast.Parameter); ok {
			params[p.Name()] = p
		}
		return true
	})
	return params
}

// evalCache is the shared artifact cache behind Eval's caching mode. The
// first cached evaluation sizes it.
var (
	evalCacheOnce sync.Once
	evalCache     *cache.Cache
)

func sharedCache(size int) *cache.Cache {
	evalCacheOnce.Do(func() {
		evalCache = cache.New(size)
	})
	return evalCache
}
