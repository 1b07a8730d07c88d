package conditions

import "strconv"

// methodArity is the complete method allow-list and the number of arguments
// each method takes. Nothing outside this table is ever invoked.
var methodArity = map[string]int{
	"contains":   1,
	"startswith": 1,
	"endswith":   1,
	"lower":      0,
	"upper":      0,
	"strip":      0,
}

// validateTree walks a parsed expression and rejects any node the sandbox
// does not allow. It runs to completion before evaluation starts, so a
// rejected expression is guaranteed to have had zero side effects.
func validateTree(node exprNode) error {
	switch n := node.(type) {
	case *literalNode, *nameNode:
		return nil
	case *attrNode:
		return validateTree(n.target)
	case *callNode:
		arity, allowed := methodArity[n.method]
		if !allowed {
			return &UnsafeExpressionError{Construct: "method " + strconv.Quote(n.method), Position: n.pos}
		}

		if len(n.args) != arity {
			return &UnsafeExpressionError{
				Construct: "method " + strconv.Quote(n.method) + " with " + strconv.Itoa(len(n.args)) + " arguments",
				Position:  n.pos,
			}
		}

		if err := validateTree(n.target); err != nil {
			return err
		}

		for _, arg := range n.args {
			if err := validateTree(arg); err != nil {
				return err
			}
		}

		return nil
	case *unaryNode:
		return validateTree(n.operand)
	case *binaryNode:
		if err := validateTree(n.left); err != nil {
			return err
		}

		return validateTree(n.right)
	case *compareNode:
		if err := validateTree(n.left); err != nil {
			return err
		}

		return validateTree(n.right)
	case *boolNode:
		if err := validateTree(n.left); err != nil {
			return err
		}

		return validateTree(n.right)
	default:
		return &UnsafeExpressionError{Construct: "unknown node", Position: node.position()}
	}
}
