package parser

import (
	"fmt"
	"strconv"
)

// --------------------
// Literal Expressions
// --------------------

type Value interface {
	value() any
}

type NumberExpr struct {
	Value float64
}

func (n NumberExpr) value() any { return n.Value }

func (n NumberExpr) String() string {
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

type StringExpr struct {
	Value string
}

func (s StringExpr) value() any { return s.Value }

func (s StringExpr) String() string {
	return strconv.Quote(s.Value)
}

type StringListExpr struct {
	Values []string
}

func (s StringListExpr) value() any { return s.Values }

func (s StringListExpr) String() string {
	return fmt.Sprintf("%v", s.Values)
}

//-----------------------
// Identifier Expressions
// ----------------------

// identifier.key expression, like attributes.status
type Identifier struct {
	Identifier string
	Key        string
}

// --------------------
// Comparison Expression
// --------------------

type OperatorKind int

const (
	Equals OperatorKind = iota
	NotEquals
	Less
	LessEquals
	Greater
	GreaterEquals
	Like
	ILike
	In
	NotIn
)

// String returns the SQL spelling of the operator.
func (o OperatorKind) String() string {
	switch o {
	case Equals:
		return "="
	case NotEquals:
		return "!="
	case Less:
		return "<"
	case LessEquals:
		return "<="
	case Greater:
		return ">"
	case GreaterEquals:
		return ">="
	case Like:
		return "LIKE"
	case ILike:
		return "ILIKE"
	case In:
		return "IN"
	case NotIn:
		return "NOT IN"
	default:
		return "unknown"
	}
}

// a operator b
type CompareExpr struct {
	Left     Identifier
	Operator OperatorKind
	Right    Value
}

// AND
type AndExpr struct {
	Exprs []*CompareExpr
}
