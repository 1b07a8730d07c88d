package conditions

// The expression AST is a private tagged-variant tree produced by the
// recursive-descent parser in parser.go. Keeping the node set closed makes
// the allow-list check in validate.go structural and exhaustive: a construct
// the parser cannot express cannot reach evaluation.

type exprNode interface {
	position() int
}

type literalNode struct {
	pos   int
	value any
}

type nameNode struct {
	pos  int
	name string
}

// attrNode is dotted attribute/dict access: target.name.
type attrNode struct {
	pos    int
	target exprNode
	name   string
}

// callNode is a method call on a resolved value: target.method(args...).
// Only the fixed allow-list in validate.go may ever be invoked.
type callNode struct {
	pos    int
	target exprNode
	method string
	args   []exprNode
}

// unaryNode is numeric negation or boolean "not".
type unaryNode struct {
	pos     int
	op      string
	operand exprNode
}

// binaryNode is arithmetic: + - * / %.
type binaryNode struct {
	pos   int
	op    string
	left  exprNode
	right exprNode
}

// compareNode is == != < <= > >=.
type compareNode struct {
	pos   int
	op    string
	left  exprNode
	right exprNode
}

// boolNode is short-circuit "and"/"or".
type boolNode struct {
	pos   int
	op    string
	left  exprNode
	right exprNode
}

func (n *literalNode) position() int { return n.pos }
func (n *nameNode) position() int    { return n.pos }
func (n *attrNode) position() int    { return n.pos }
func (n *callNode) position() int    { return n.pos }
func (n *unaryNode) position() int   { return n.pos }
func (n *binaryNode) position() int  { return n.pos }
func (n *compareNode) position() int { return n.pos }
func (n *boolNode) position() int    { return n.pos }
