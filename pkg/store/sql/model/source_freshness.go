package model

import (
	"time"

	"gorm.io/datatypes"

	"github.com/pipemeta/pipemeta/pkg/entities"
)

// SourceFreshness mapped from table <dbt_source_freshness_results>.
type SourceFreshness struct {
	ID           uint   `db:"id"            gorm:"column:id;primaryKey;autoIncrement"`
	ScheduleName string `db:"schedule_name" gorm:"column:schedule_name;index"`
	UniqueID     string `db:"unique_id"     gorm:"column:unique_id"`
	SourceName   string `db:"source_name"   gorm:"column:source_name"`
	Name         string `db:"name"          gorm:"column:name"`
	Table        string `db:"table_name"    gorm:"column:table_name"`

	FreshnessStatus       *string    `db:"freshness_status"            gorm:"column:freshness_status"`
	FreshnessChecked      bool       `db:"freshness_checked"           gorm:"column:freshness_checked"`
	MaxLoadedAt           *time.Time `db:"max_loaded_at"               gorm:"column:max_loaded_at"`
	SnapshottedAt         *time.Time `db:"snapshotted_at"              gorm:"column:snapshotted_at"`
	MaxLoadedAtTimeAgoInS *float64   `db:"max_loaded_at_time_ago_in_s" gorm:"column:max_loaded_at_time_ago_in_s"`
	HoursSinceLoad        *float64   `db:"hours_since_load"            gorm:"column:hours_since_load"`

	ErrorAfterHours *float64                                        `db:"error_after_hours" gorm:"column:error_after_hours"`
	WarnAfterHours  *float64                                        `db:"warn_after_hours"  gorm:"column:warn_after_hours"`
	Criteria        datatypes.JSONType[*entities.FreshnessCriteria] `db:"criteria"          gorm:"column:criteria"`

	Database          *string                     `db:"database"           gorm:"column:database"`
	SchemaName        *string                     `db:"schema_name"        gorm:"column:schema_name"`
	Identifier        *string                     `db:"identifier"         gorm:"column:identifier"`
	Description       *string                     `db:"description"        gorm:"column:description"`
	SourceDescription *string                     `db:"source_description" gorm:"column:source_description"`
	Comment           *string                     `db:"comment"            gorm:"column:comment"`
	Meta              datatypes.JSONMap           `db:"meta"               gorm:"column:meta"`
	Tags              datatypes.JSONSlice[string] `db:"tags"               gorm:"column:tags"`
	Owner             *string                     `db:"owner"              gorm:"column:owner"`
	Loader            *string                     `db:"loader"             gorm:"column:loader"`
	Type              *string                     `db:"type"               gorm:"column:type"`
	Columns           datatypes.JSONMap           `db:"columns"            gorm:"column:columns"`

	ErrorMessage *string `db:"error_message" gorm:"column:error_message"`
}

func (SourceFreshness) TableName() string {
	return "dbt_source_freshness_results"
}

func NewSourceFreshnessFromEntity(scheduleName string, entity *entities.SourceFreshnessResult) SourceFreshness {
	return SourceFreshness{
		ScheduleName:          scheduleName,
		UniqueID:              entity.UniqueID,
		SourceName:            entity.SourceName,
		Name:                  entity.Name,
		Table:                 entity.TableName,
		FreshnessStatus:       entity.FreshnessStatus,
		FreshnessChecked:      entity.FreshnessChecked,
		MaxLoadedAt:           entity.MaxLoadedAt,
		SnapshottedAt:         entity.SnapshottedAt,
		MaxLoadedAtTimeAgoInS: entity.MaxLoadedAtTimeAgoInS,
		HoursSinceLoad:        entity.HoursSinceLoad,
		ErrorAfterHours:       entity.ErrorAfterHours,
		WarnAfterHours:        entity.WarnAfterHours,
		Criteria:              datatypes.NewJSONType(entity.Criteria),
		Database:              entity.Database,
		SchemaName:            entity.SchemaName,
		Identifier:            entity.Identifier,
		Description:           entity.Description,
		SourceDescription:     entity.SourceDescription,
		Comment:               entity.Comment,
		Meta:                  datatypes.JSONMap(entity.Meta),
		Tags:                  datatypes.NewJSONSlice(entity.Tags),
		Owner:                 entity.Owner,
		Loader:                entity.Loader,
		Type:                  entity.Type,
		Columns:               datatypes.JSONMap(entity.Columns),
		ErrorMessage:          entity.ErrorMessage,
	}
}

func (s SourceFreshness) ToEntity() *entities.SourceFreshnessResult {
	return &entities.SourceFreshnessResult{
		UniqueID:              s.UniqueID,
		SourceName:            s.SourceName,
		Name:                  s.Name,
		TableName:             s.Table,
		FreshnessStatus:       s.FreshnessStatus,
		FreshnessChecked:      s.FreshnessChecked,
		MaxLoadedAt:           s.MaxLoadedAt,
		SnapshottedAt:         s.SnapshottedAt,
		MaxLoadedAtTimeAgoInS: s.MaxLoadedAtTimeAgoInS,
		HoursSinceLoad:        s.HoursSinceLoad,
		ErrorAfterHours:       s.ErrorAfterHours,
		WarnAfterHours:        s.WarnAfterHours,
		Criteria:              s.Criteria.Data(),
		Database:              s.Database,
		SchemaName:            s.SchemaName,
		Identifier:            s.Identifier,
		Description:           s.Description,
		SourceDescription:     s.SourceDescription,
		Comment:               s.Comment,
		Meta:                  map[string]any(s.Meta),
		Tags:                  []string(s.Tags),
		Owner:                 s.Owner,
		Loader:                s.Loader,
		Type:                  s.Type,
		Columns:               map[string]any(s.Columns),
		ErrorMessage:          s.ErrorMessage,
	}
}
