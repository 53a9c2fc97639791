package sql

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/pipemeta/pipemeta/pkg/contract"
	"github.com/pipemeta/pipemeta/pkg/entities"
	"github.com/pipemeta/pipemeta/pkg/query"
	"github.com/pipemeta/pipemeta/pkg/query/parser"
	"github.com/pipemeta/pipemeta/pkg/store"
	"github.com/pipemeta/pipemeta/pkg/store/sql/model"
	"github.com/pipemeta/pipemeta/pkg/utils"
)

type PageToken struct {
	Offset int32 `json:"offset"`
}

func getOffset(pageToken string) (int, *contract.Error) {
	if pageToken != "" {
		var token PageToken
		if err := json.NewDecoder(
			base64.NewDecoder(
				base64.StdEncoding,
				strings.NewReader(pageToken),
			),
		).Decode(&token); err != nil {
			return 0, contract.NewErrorWith(
				contract.ErrorCodeInvalidParameterValue,
				fmt.Sprintf("invalid page_token: %q", pageToken),
				err,
			)
		}

		return int(token.Offset), nil
	}

	return 0, nil
}

func mkNextPageToken(pageLength, maxResults, offset int) (*string, *contract.Error) {
	var nextPageToken *string

	if pageLength == maxResults {
		var token strings.Builder
		if err := json.NewEncoder(
			base64.NewEncoder(base64.StdEncoding, &token),
		).Encode(PageToken{
			Offset: int32(offset + maxResults),
		}); err != nil {
			return nil, contract.NewErrorWith(
				contract.ErrorCodeInternalError,
				"error encoding 'nextPageToken' value",
				err,
			)
		}

		nextPageToken = utils.PtrTo(token.String())
	}

	return nextPageToken, nil
}

// tagPattern is the containment probe against the JSON-encoded tags column:
// a tag value always appears quoted inside the serialized array.
func tagPattern(value string) string {
	return fmt.Sprintf(`%%"%s"%%`, value)
}

//nolint:cyclop
func applyFilters(s *Store, transaction *gorm.DB, filter string) *contract.Error {
	filterConditions, err := query.ParseFilter(filter)
	if err != nil {
		return contract.NewErrorWith(
			contract.ErrorCodeInvalidParameterValue,
			"error parsing search filter",
			err,
		)
	}

	s.log.Debugf("Filter conditions: %#v", filterConditions)

	for _, condition := range filterConditions {
		key := condition.Key
		comparison := strings.ToUpper(condition.Operator.String())
		value := condition.Value

		if condition.Identifier == parser.Tag {
			switch condition.Operator {
			case parser.In, parser.NotIn:
				values, _ := value.([]string)
				tagGroup := s.db.Session(&gorm.Session{NewDB: true})
				for _, item := range values {
					tagGroup = tagGroup.Or("tags LIKE ?", tagPattern(item))
				}
				if condition.Operator == parser.NotIn {
					transaction.Not(tagGroup)
				} else {
					transaction.Where(tagGroup)
				}
			case parser.NotEquals:
				transaction.Where("tags NOT LIKE ?", tagPattern(fmt.Sprintf("%v", value)))
			default:
				transaction.Where("tags LIKE ?", tagPattern(fmt.Sprintf("%v", value)))
			}

			continue
		}

		isSqliteAndILike := s.db.Dialector.Name() == "sqlite" && comparison == "ILIKE"
		if isSqliteAndILike {
			key = fmt.Sprintf("LOWER(%s)", key)
			comparison = "LIKE"

			if str, ok := value.(string); ok {
				value = strings.ToLower(str)
			}
		}

		transaction.Where(fmt.Sprintf("%s %s ?", key, comparison), value)
	}

	return nil
}

// SearchModels filters the schedule's model rows with the search DSL and
// pages through them in (executed_at DESC, unique_id) order.
func (s *Store) SearchModels(
	scheduleName string, filter string, maxResults int, pageToken string,
) (*store.PagedList[*entities.ModelHealth], *contract.Error) {
	offset, contractError := getOffset(pageToken)
	if contractError != nil {
		return nil, contractError
	}

	transaction := s.db.
		Where("schedule_name = ?", scheduleName).
		Where("resource_type = ?", string(entities.ResourceTypeModel))

	if contractError := applyFilters(s, transaction, filter); contractError != nil {
		return nil, contractError
	}

	var rows []model.RunResult

	err := transaction.
		Order("executed_at DESC").
		Order("unique_id").
		Offset(offset).
		Limit(maxResults).
		Find(&rows).Error
	if err != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to search models", err)
	}

	aggregates, aggErr := s.modelTestAggregates(scheduleName)
	if aggErr != nil {
		return nil, contract.NewErrorWith(contract.ErrorCodeInternalError, "failed to search models", aggErr)
	}

	results := make([]*entities.ModelHealth, 0, len(rows))
	for _, row := range rows {
		results = append(results, modelHealthFromRow(row, aggregates))
	}

	nextPageToken, contractError := mkNextPageToken(len(rows), maxResults, offset)
	if contractError != nil {
		return nil, contractError
	}

	return &store.PagedList[*entities.ModelHealth]{
		Items:         results,
		NextPageToken: nextPageToken,
	}, nil
}
