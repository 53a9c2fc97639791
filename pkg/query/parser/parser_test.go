package parser_test

import (
	"reflect"
	"testing"

	"github.com/pipemeta/pipemeta/pkg/query/lexer"
	"github.com/pipemeta/pipemeta/pkg/query/parser"
)

type Sample struct {
	input    string
	expected *parser.AndExpr
}

func TestQueries(t *testing.T) {
	samples := []Sample{
		{
			input: "execution_time > 0.72",
			expected: &parser.AndExpr{
				Exprs: []*parser.CompareExpr{
					{
						Left:     parser.Identifier{Key: "execution_time"},
						Operator: parser.Greater,
						Right:    parser.NumberExpr{Value: 0.72},
					},
				},
			},
		},
		{
			input: "attributes.\"execution_time\" > 0.72",
			expected: &parser.AndExpr{
				Exprs: []*parser.CompareExpr{
					{
						Left:     parser.Identifier{Identifier: "attributes", Key: "execution_time"},
						Operator: parser.Greater,
						Right:    parser.NumberExpr{Value: 0.72},
					},
				},
			},
		},
		{
			input: "status = \"error\" AND execution_time <= 30.5",
			expected: &parser.AndExpr{
				Exprs: []*parser.CompareExpr{
					{
						Left:     parser.Identifier{Key: "status"},
						Operator: parser.Equals,
						Right:    parser.StringExpr{Value: "error"},
					},
					{
						Left:     parser.Identifier{Key: "execution_time"},
						Operator: parser.LessEquals,
						Right:    parser.NumberExpr{Value: 30.5},
					},
				},
			},
		},
		{
			input: "model.schema_name = \"analytics\"",
			expected: &parser.AndExpr{
				Exprs: []*parser.CompareExpr{
					{
						Left:     parser.Identifier{Identifier: "model", Key: "schema_name"},
						Operator: parser.Equals,
						Right:    parser.StringExpr{Value: "analytics"},
					},
				},
			},
		},
		{
			input: "name ILIKE \"stg_%\"",
			expected: &parser.AndExpr{
				Exprs: []*parser.CompareExpr{
					{
						Left:     parser.Identifier{Key: "name"},
						Operator: parser.ILike,
						Right:    parser.StringExpr{Value: "stg_%"},
					},
				},
			},
		},
		{
			input: "status IN ('error', 'fail')",
			expected: &parser.AndExpr{
				Exprs: []*parser.CompareExpr{
					{
						Left:     parser.Identifier{Key: "status"},
						Operator: parser.In,
						Right:    parser.StringListExpr{Values: []string{"error", "fail"}},
					},
				},
			},
		},
		{
			input: "status NOT IN ('success')",
			expected: &parser.AndExpr{
				Exprs: []*parser.CompareExpr{
					{
						Left:     parser.Identifier{Key: "status"},
						Operator: parser.NotIn,
						Right:    parser.StringListExpr{Values: []string{"success"}},
					},
				},
			},
		},
		{
			input: "tags = \"pii\" AND owner != \"data-eng\"",
			expected: &parser.AndExpr{
				Exprs: []*parser.CompareExpr{
					{
						Left:     parser.Identifier{Key: "tags"},
						Operator: parser.Equals,
						Right:    parser.StringExpr{Value: "pii"},
					},
					{
						Left:     parser.Identifier{Key: "owner"},
						Operator: parser.NotEquals,
						Right:    parser.StringExpr{Value: "data-eng"},
					},
				},
			},
		},
	}

	for _, sample := range samples {
		t.Run(sample.input, func(t *testing.T) {
			tokens, err := lexer.Tokenize(&sample.input)
			if err != nil {
				t.Errorf("unexpected lex error: %v", err)
			}

			ast, err := parser.Parse(tokens)
			if err != nil {
				t.Errorf("error parsing: %s", err)
			}

			if !reflect.DeepEqual(ast, sample.expected) {
				t.Errorf("expected %#v, got %#v", sample.expected, ast)
			}
		})
	}
}

func TestInvalidSyntax(t *testing.T) {
	samples := []string{
		"attribute.status IS 'error'",
		"status =",
		"status = = \"error\"",
		"status NOT LIKE \"err%\"",
	}

	for _, sample := range samples {
		t.Run(sample, func(t *testing.T) {
			tokens, err := lexer.Tokenize(&sample)
			if err != nil {
				t.Errorf("unexpected lex error: %v", err)
			}

			_, err = parser.Parse(tokens)
			if err == nil {
				t.Errorf("expected parse error, got nil")
			}
		})
	}
}
