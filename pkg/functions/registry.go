// Package functions provides the function-name-to-node-constructor registry.
//
// The registry is an explicit table built once at process start — there is
// no runtime scanning. The parser consults it to turn `round(x, 2)` into the
// corresponding function node; the node hierarchy itself performs no name
// lookup.
//
// Custom functions can be added before any parsing takes place:
//
//	functions.Register(functions.Definition{
//	    Name:     "clamp",
//	    Arity:    3,
//	    Operands: []types.TypeSet{types.NumberTypes, types.NumberTypes, types.NumberTypes},
//	    Result:   types.NumberTypes,
//	    New: func(args []ast.Node) (ast.Node, error) { ... },
//	})
package functions

import (
	"sort"
	"strings"
	"sync"

	"github.com/sandrolain/goformula/pkg/ast"
	"github.com/sandrolain/goformula/pkg/guard"
	"github.com/sandrolain/goformula/pkg/types"
)

// Constructor builds a function node from its operand nodes.
type Constructor func(args []ast.Node) (ast.Node, error)

// Definition describes one registered function: its name, arity, the
// candidate types accepted per operand, the candidate result types, and the
// node constructor.
type Definition struct {
	Name     string
	Arity    int
	Operands []types.TypeSet
	Result   types.TypeSet
	New      Constructor
}

var (
	mu       sync.RWMutex
	registry = map[string]Definition{}
)

// Register adds a function definition to the registry. Names are
// case-insensitive; registering an existing name replaces it.
func Register(def Definition) error {
	if err := guard.Require(def.Name != "", "function", "name must not be empty"); err != nil {
		return err
	}
	if err := guard.Require(def.New != nil, "function", "constructor must not be nil"); err != nil {
		return err
	}
	if err := guard.ArgCount(def.Name, def.Arity, len(def.Operands)); err != nil {
		return err
	}
	mu.Lock()
	registry[strings.ToLower(def.Name)] = def
	mu.Unlock()
	return nil
}

// Lookup returns the definition registered under name (case-insensitive).
func Lookup(name string) (Definition, bool) {
	mu.RLock()
	def, ok := registry[strings.ToLower(name)]
	mu.RUnlock()
	return def, ok
}

// Names returns the sorted names of all registered functions.
func Names() []string {
	mu.RLock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	mu.RUnlock()
	sort.Strings(names)
	return names
}

// unary adapts a single-operand ast constructor to the registry signature.
func unary(name string, ctor func(ast.Node) (ast.Node, error)) Constructor {
	return func(args []ast.Node) (ast.Node, error) {
		if err := guard.ArgCount(name, 1, len(args)); err != nil {
			return nil, err
		}
		return ctor(args[0])
	}
}

// binary adapts a two-operand ast constructor to the registry signature.
func binary(name string, ctor func(ast.Node, ast.Node) (ast.Node, error)) Constructor {
	return func(args []ast.Node) (ast.Node, error) {
		if err := guard.ArgCount(name, 2, len(args)); err != nil {
			return nil, err
		}
		return ctor(args[0], args[1])
	}
}

// init builds the built-in function table.
func init() {
	str := types.String.Set()
	boolean := types.Boolean.Set()
	num := types.NumberTypes
	flt := types.Numeric.Set()
	integer := types.Integer.Set()

	builtins := []Definition{
		{Name: "abs", Arity: 1, Operands: []types.TypeSet{num}, Result: num, New: unary("abs", ast.NewAbs)},
		{Name: "sqrt", Arity: 1, Operands: []types.TypeSet{num}, Result: flt, New: unary("sqrt", ast.NewSqrt)},
		{Name: "floor", Arity: 1, Operands: []types.TypeSet{num}, Result: num, New: unary("floor", ast.NewFloor)},
		{Name: "ceiling", Arity: 1, Operands: []types.TypeSet{num}, Result: num, New: unary("ceiling", ast.NewCeiling)},

		{Name: "min", Arity: 2, Operands: []types.TypeSet{num, num}, Result: num, New: binary("min", ast.NewMin)},
		{Name: "max", Arity: 2, Operands: []types.TypeSet{num, num}, Result: num, New: binary("max", ast.NewMax)},
		{Name: "power", Arity: 2, Operands: []types.TypeSet{num, num}, Result: num, New: binary("power", ast.NewPower)},

		{Name: "round", Arity: 2, Operands: []types.TypeSet{num, integer}, Result: flt, New: binary("round", ast.NewRound)},
		{Name: "truncate", Arity: 2, Operands: []types.TypeSet{num, integer}, Result: flt, New: binary("truncate", ast.NewTruncate)},

		{Name: "upper", Arity: 1, Operands: []types.TypeSet{str}, Result: str, New: unary("upper", ast.NewUpper)},
		{Name: "lower", Arity: 1, Operands: []types.TypeSet{str}, Result: str, New: unary("lower", ast.NewLower)},
		{Name: "trim", Arity: 1, Operands: []types.TypeSet{str}, Result: str, New: unary("trim", ast.NewTrim)},
		{Name: "length", Arity: 1, Operands: []types.TypeSet{str}, Result: integer, New: unary("length", ast.NewLength)},

		{Name: "contains", Arity: 2, Operands: []types.TypeSet{str, str}, Result: boolean, New: binary("contains", ast.NewContains)},
		{Name: "startswith", Arity: 2, Operands: []types.TypeSet{str, str}, Result: boolean, New: binary("startswith", ast.NewStartsWith)},
		{Name: "endswith", Arity: 2, Operands: []types.TypeSet{str, str}, Result: boolean, New: binary("endswith", ast.NewEndsWith)},
		{Name: "concat", Arity: 2, Operands: []types.TypeSet{types.ScalarTypes, types.ScalarTypes}, Result: str, New: binary("concat", ast.NewConcat)},
	}
	for _, def := range builtins {
		if err := Register(def); err != nil {
			panic(err)
		}
	}
}
