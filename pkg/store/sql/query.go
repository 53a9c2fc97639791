package sql

import (
	"fmt"

	"github.com/pipemeta/pipemeta/pkg/entities"
)

// QuerySQL runs an arbitrary read query against the store and returns the
// raw column/row shape. Engine errors are returned as-is so callers see the
// dialect's own message.
func (s *Store) QuerySQL(query string, params ...any) (*entities.ResultSet, error) {
	rows, err := s.db.Raw(query, params...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	result := &entities.ResultSet{
		Columns: columns,
		Rows:    make([][]any, 0),
	}

	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}

		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
