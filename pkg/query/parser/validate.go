package parser

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"
)

/*

This is the equivalent of type-checking the untyped tree.
Not every parsed tree is a valid one.

Grammar rule: identifier.key operator value

The rules are:

identifier.key

Or if only key is passed, the identifier is "attribute"

Identifiers can have aliases.

"tag" takes no key: tags are matched as a bare set membership.

*/

type ValidIdentifier int

const (
	Attribute ValidIdentifier = iota
	Tag
)

func (v ValidIdentifier) String() string {
	switch v {
	case Attribute:
		return "attribute"
	case Tag:
		return "tag"
	default:
		return "unknown"
	}
}

type ValidCompareExpr struct {
	Identifier ValidIdentifier
	Key        string
	Operator   OperatorKind
	Value      interface{}
}

type ValidationError struct {
	message string
}

func (e *ValidationError) Error() string {
	return e.message
}

func NewValidationError(format string, a ...interface{}) *ValidationError {
	return &ValidationError{message: fmt.Sprintf(format, a...)}
}

const (
	attributeIdentifier = "attribute"
	tagIdentifier       = "tag"
)

func parseValidIdentifier(identifier string) (ValidIdentifier, error) {
	switch identifier {
	case "", attributeIdentifier, "attr", "attributes", "model", "models":
		return Attribute, nil
	case tagIdentifier, "tags":
		return Tag, nil
	default:
		return -1, NewValidationError("invalid identifier %q", identifier)
	}
}

const ExecutionTime = "execution_time"

var searchableModelAttributes = []string{
	"unique_id",
	"name",
	"status",
	"schema_name",
	"database_name",
	"model_type",
	"owner",
	"package_name",
	"language",
	"access",
	"alias",
	ExecutionTime,
}

func parseAttributeKey(key string) (string, error) {
	// Keys arrive in whichever casing the caller used; the columns are
	// snake_case.
	key = strcase.ToSnake(key)

	for _, attribute := range searchableModelAttributes {
		if key == attribute {
			return key, nil
		}
	}

	return "", NewValidationError(
		"invalid attribute key: %s. Allowed values are %v",
		key,
		searchableModelAttributes,
	)
}

func parseKey(identifier ValidIdentifier, key string) (string, error) {
	switch identifier {
	case Attribute:
		if key == "" {
			return "", NewValidationError(
				"missing attribute key. Allowed values are %v",
				searchableModelAttributes,
			)
		}

		return parseAttributeKey(key)
	case Tag:
		// A tag expression names no key: "tag = 'nightly'".
		if key != "" && key != tagIdentifier && key != "tags" {
			return "", NewValidationError("tag expressions take no key, got %q", key)
		}

		return "", nil
	default:
		return key, nil
	}
}

// Returns a standardized identifier/key pair.
func validatedIdentifier(identifier *Identifier) (ValidIdentifier, string, error) {
	validIdentifier, err := parseValidIdentifier(identifier.Identifier)
	if err != nil {
		return -1, "", err
	}

	// A bare "tags" token lexes as Identifier{Key: "tags"}.
	if validIdentifier == Attribute && identifier.Identifier == "" &&
		(identifier.Key == tagIdentifier || identifier.Key == "tags") {
		validIdentifier = Tag
	}

	validKey, err := parseKey(validIdentifier, identifier.Key)
	if err != nil {
		return -1, "", err
	}

	identifier.Key = validKey

	return validIdentifier, validKey, nil
}

/*

The value part is determined by the identifier

"tag" takes strings or lists of strings
"attribute" takes strings, except execution_time which is numeric

*/

func validateValue(identifier ValidIdentifier, key string, value Value) (interface{}, error) {
	switch identifier {
	case Tag:
		if _, ok := value.(NumberExpr); ok {
			return nil, NewValidationError(
				"expected a quoted string value for tag. Found %s",
				value,
			)
		}

		return value.value(), nil
	case Attribute:
		return validateAttributeValue(key, value)
	default:
		return nil, NewValidationError(
			"invalid identifier type %s. Expected one of %s",
			identifier,
			strings.Join([]string{attributeIdentifier, tagIdentifier}, ", "),
		)
	}
}

func validateAttributeValue(key string, value Value) (interface{}, error) {
	if key == ExecutionTime {
		if _, ok := value.(NumberExpr); !ok {
			return nil, NewValidationError(
				"expected numeric value type for numeric attribute: %s. Found %s",
				key,
				value,
			)
		}

		return value.value(), nil
	}

	if _, ok := value.(NumberExpr); ok {
		return nil, NewValidationError(
			"expected a quoted string value for attribute %s. Found %s",
			key,
			value,
		)
	}

	return value.value(), nil
}

// Validate an expression according to the model-search domain. This is a
// simple type-checker for the expression: not every identifier names a
// searchable column, and the value kind must match the column.
func ValidateExpression(expression *CompareExpr) (*ValidCompareExpr, error) {
	validIdentifier, validKey, err := validatedIdentifier(&expression.Left)
	if err != nil {
		return nil, fmt.Errorf("error on parsing filter expression: %w", err)
	}

	value, err := validateValue(validIdentifier, validKey, expression.Right)
	if err != nil {
		return nil, fmt.Errorf("error on parsing filter expression: %w", err)
	}

	return &ValidCompareExpr{
		Identifier: validIdentifier,
		Key:        validKey,
		Operator:   expression.Operator,
		Value:      value,
	}, nil
}
