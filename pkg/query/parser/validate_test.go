package parser_test

import (
	"strings"
	"testing"

	"github.com/pipemeta/pipemeta/pkg/query/lexer"
	"github.com/pipemeta/pipemeta/pkg/query/parser"
)

type invalidSample struct {
	input         string
	expectedError string
}

func TestValidQueries(t *testing.T) {
	samples := []string{
		"status = \"error\"",
		"attributes.status = \"error\"",
		"model.name LIKE \"stg_%\"",
		"models.owner ILIKE \"%data%\"",
		"execution_time > 30",
		"attributes.executionTime > 30",
		"status IN ('error', 'fail')",
		"tags = \"pii\"",
		"tags IN ('pii', 'nightly')",
		"database_name != \"raw\" AND schema_name = \"analytics\"",
	}

	for _, sample := range samples {
		t.Run(sample, func(t *testing.T) {
			tokens, err := lexer.Tokenize(&sample)
			if err != nil {
				t.Fatalf("unexpected lex error: %v", err)
			}

			ast, err := parser.Parse(tokens)
			if err != nil {
				t.Fatalf("unexpected parse error: %v", err)
			}

			for _, expr := range ast.Exprs {
				if _, err := parser.ValidateExpression(expr); err != nil {
					t.Errorf("unexpected validation error: %v", err)
				}
			}
		})
	}
}

func TestCamelCaseKeysAreCanonicalized(t *testing.T) {
	input := "attributes.databaseName = \"raw\""

	tokens, err := lexer.Tokenize(&input)
	if err != nil {
		t.Fatalf("unexpected lex error: %v", err)
	}

	ast, err := parser.Parse(tokens)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	valid, err := parser.ValidateExpression(ast.Exprs[0])
	if err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	if valid.Key != "database_name" {
		t.Errorf("expected key database_name, got %q", valid.Key)
	}
}

func TestInvalidQueries(t *testing.T) {
	samples := []invalidSample{
		{
			input:         "metrics.accuracy > 0.72",
			expectedError: "invalid identifier \"metrics\"",
		},
		{
			input:         "attributes.lifecycle_stage = \"active\"",
			expectedError: "invalid attribute key: lifecycle_stage",
		},
		{
			input:         "execution_time > \"thirty\"",
			expectedError: "expected numeric value type for numeric attribute: execution_time",
		},
		{
			input:         "status = 3",
			expectedError: "expected a quoted string value for attribute status",
		},
		{
			input:         "tags = 3",
			expectedError: "expected a quoted string value for tag",
		},
		{
			input:         "tags.env = \"prod\"",
			expectedError: "tag expressions take no key",
		},
	}

	for _, sample := range samples {
		t.Run(sample.input, func(t *testing.T) {
			tokens, err := lexer.Tokenize(&sample.input)
			if err != nil {
				t.Fatalf("unexpected lex error: %v", err)
			}

			ast, err := parser.Parse(tokens)
			if err != nil {
				t.Fatalf("unexpected parse error: %v", err)
			}

			_, err = parser.ValidateExpression(ast.Exprs[0])
			if err == nil {
				t.Fatalf("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), sample.expectedError) {
				t.Errorf("expected error containing %q, got %q", sample.expectedError, err.Error())
			}
		})
	}
}
