// Package model holds the GORM table mappings of the seven artifact record
// kinds. Every table carries a schedule_name partition column; list and map
// fields are stored as JSON columns.
package model

import (
	"time"

	"gorm.io/datatypes"

	"github.com/pipemeta/pipemeta/pkg/entities"
)

// RunResult mapped from table <dbt_run_results>.
type RunResult struct {
	ID           uint   `db:"id"            gorm:"column:id;primaryKey;autoIncrement"`
	ScheduleName string `db:"schedule_name" gorm:"column:schedule_name;index"`
	UniqueID     string `db:"unique_id"     gorm:"column:unique_id"`
	Name         string `db:"name"          gorm:"column:name"`
	ResourceType string `db:"resource_type" gorm:"column:resource_type"`

	Status        *string    `db:"status"         gorm:"column:status"`
	ExecutionTime *float64   `db:"execution_time" gorm:"column:execution_time"`
	ExecutedAt    *time.Time `db:"executed_at"    gorm:"column:executed_at"`
	ErrorMessage  *string    `db:"error_message"  gorm:"column:error_message"`

	DependsOn    datatypes.JSONSlice[string] `db:"depends_on"    gorm:"column:depends_on"`
	SchemaName   *string                     `db:"schema_name"   gorm:"column:schema_name"`
	DatabaseName *string                     `db:"database_name" gorm:"column:database_name"`
	ModelType    *string                     `db:"model_type"    gorm:"column:model_type"`
	Config       datatypes.JSONMap           `db:"config"        gorm:"column:config"`
	Tags         datatypes.JSONSlice[string] `db:"tags"          gorm:"column:tags"`
	Meta         datatypes.JSONMap           `db:"meta"          gorm:"column:meta"`

	Alias            *string                     `db:"alias"              gorm:"column:alias"`
	MaterializedType *string                     `db:"materialized_type"  gorm:"column:materialized_type"`
	Description      *string                     `db:"description"        gorm:"column:description"`
	Access           *string                     `db:"access"             gorm:"column:access"`
	Language         *string                     `db:"language"           gorm:"column:language"`
	PackageName      *string                     `db:"package_name"       gorm:"column:package_name"`
	Owner            *string                     `db:"owner"              gorm:"column:owner"`
	CompiledSQL      *string                     `db:"compiled_sql"       gorm:"column:compiled_sql"`
	RawSQL           *string                     `db:"raw_sql"            gorm:"column:raw_sql"`
	Columns          datatypes.JSONMap           `db:"columns"            gorm:"column:columns"`
	Children         datatypes.JSONSlice[string] `db:"children"           gorm:"column:children"`
	ParentsModels    datatypes.JSONSlice[string] `db:"parents_models"     gorm:"column:parents_models"`
	ParentsSources   datatypes.JSONSlice[string] `db:"parents_sources"    gorm:"column:parents_sources"`
	OriginalFilePath *string                     `db:"original_file_path" gorm:"column:original_file_path"`
	RootPath         *string                     `db:"root_path"          gorm:"column:root_path"`

	CompileStartedAt   *time.Time `db:"compile_started_at"   gorm:"column:compile_started_at"`
	CompileCompletedAt *time.Time `db:"compile_completed_at" gorm:"column:compile_completed_at"`
	ExecuteStartedAt   *time.Time `db:"execute_started_at"   gorm:"column:execute_started_at"`
	ExecuteCompletedAt *time.Time `db:"execute_completed_at" gorm:"column:execute_completed_at"`

	ThreadID        *string           `db:"thread_id"        gorm:"column:thread_id"`
	AdapterResponse datatypes.JSONMap `db:"adapter_response" gorm:"column:adapter_response"`
}

func (RunResult) TableName() string {
	return "dbt_run_results"
}

func NewRunResultFromEntity(scheduleName string, entity *entities.RunResult) RunResult {
	return RunResult{
		ScheduleName:       scheduleName,
		UniqueID:           entity.UniqueID,
		Name:               entity.Name,
		ResourceType:       entity.ResourceType,
		Status:             entity.Status,
		ExecutionTime:      entity.ExecutionTime,
		ExecutedAt:         entity.ExecutedAt,
		ErrorMessage:       entity.ErrorMessage,
		DependsOn:          datatypes.NewJSONSlice(entity.DependsOn),
		SchemaName:         entity.SchemaName,
		DatabaseName:       entity.DatabaseName,
		ModelType:          entity.ModelType,
		Config:             datatypes.JSONMap(entity.Config),
		Tags:               datatypes.NewJSONSlice(entity.Tags),
		Meta:               datatypes.JSONMap(entity.Meta),
		Alias:              entity.Alias,
		MaterializedType:   entity.MaterializedType,
		Description:        entity.Description,
		Access:             entity.Access,
		Language:           entity.Language,
		PackageName:        entity.PackageName,
		Owner:              entity.Owner,
		CompiledSQL:        entity.CompiledSQL,
		RawSQL:             entity.RawSQL,
		Columns:            datatypes.JSONMap(entity.Columns),
		Children:           datatypes.NewJSONSlice(entity.Children),
		ParentsModels:      datatypes.NewJSONSlice(entity.ParentsModels),
		ParentsSources:     datatypes.NewJSONSlice(entity.ParentsSources),
		OriginalFilePath:   entity.OriginalFilePath,
		RootPath:           entity.RootPath,
		CompileStartedAt:   entity.CompileStartedAt,
		CompileCompletedAt: entity.CompileCompletedAt,
		ExecuteStartedAt:   entity.ExecuteStartedAt,
		ExecuteCompletedAt: entity.ExecuteCompletedAt,
		ThreadID:           entity.ThreadID,
		AdapterResponse:    datatypes.JSONMap(entity.AdapterResponse),
	}
}

func (r RunResult) ToEntity() *entities.RunResult {
	return &entities.RunResult{
		UniqueID:           r.UniqueID,
		Name:               r.Name,
		ResourceType:       r.ResourceType,
		Status:             r.Status,
		ExecutionTime:      r.ExecutionTime,
		ExecutedAt:         r.ExecutedAt,
		ErrorMessage:       r.ErrorMessage,
		DependsOn:          []string(r.DependsOn),
		SchemaName:         r.SchemaName,
		DatabaseName:       r.DatabaseName,
		ModelType:          r.ModelType,
		Config:             map[string]any(r.Config),
		Tags:               []string(r.Tags),
		Meta:               map[string]any(r.Meta),
		Alias:              r.Alias,
		MaterializedType:   r.MaterializedType,
		Description:        r.Description,
		Access:             r.Access,
		Language:           r.Language,
		PackageName:        r.PackageName,
		Owner:              r.Owner,
		CompiledSQL:        r.CompiledSQL,
		RawSQL:             r.RawSQL,
		Columns:            map[string]any(r.Columns),
		Children:           []string(r.Children),
		ParentsModels:      []string(r.ParentsModels),
		ParentsSources:     []string(r.ParentsSources),
		OriginalFilePath:   r.OriginalFilePath,
		RootPath:           r.RootPath,
		CompileStartedAt:   r.CompileStartedAt,
		CompileCompletedAt: r.CompileCompletedAt,
		ExecuteStartedAt:   r.ExecuteStartedAt,
		ExecuteCompletedAt: r.ExecuteCompletedAt,
		ThreadID:           r.ThreadID,
		AdapterResponse:    map[string]any(r.AdapterResponse),
	}
}
