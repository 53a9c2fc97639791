package model

import (
	"time"

	"gorm.io/datatypes"

	"github.com/pipemeta/pipemeta/pkg/entities"
)

// Test mapped from table <dbt_tests>.
type Test struct {
	ID           uint    `db:"id"            gorm:"column:id;primaryKey;autoIncrement"`
	ScheduleName string  `db:"schedule_name" gorm:"column:schedule_name;index"`
	UniqueID     string  `db:"unique_id"     gorm:"column:unique_id"`
	Name         *string `db:"name"          gorm:"column:name"`
	ResourceType string  `db:"resource_type" gorm:"column:resource_type"`

	RunID        *string `db:"run_id"        gorm:"column:run_id"`
	InvocationID *string `db:"invocation_id" gorm:"column:invocation_id"`
	ColumnName   *string `db:"column_name"   gorm:"column:column_name"`

	State  *string `db:"state"  gorm:"column:state"`
	Status *string `db:"status" gorm:"column:status"`
	Fail   *bool   `db:"fail"   gorm:"column:fail"`
	Warn   *bool   `db:"warn"   gorm:"column:warn"`
	Skip   *bool   `db:"skip"   gorm:"column:skip"`

	ExecutionTime  *float64 `db:"execution_time"   gorm:"column:execution_time"`
	RunElapsedTime *float64 `db:"run_elapsed_time" gorm:"column:run_elapsed_time"`

	CompileStartedAt   *time.Time `db:"compile_started_at"   gorm:"column:compile_started_at"`
	CompileCompletedAt *time.Time `db:"compile_completed_at" gorm:"column:compile_completed_at"`
	ExecuteStartedAt   *time.Time `db:"execute_started_at"   gorm:"column:execute_started_at"`
	ExecuteCompletedAt *time.Time `db:"execute_completed_at" gorm:"column:execute_completed_at"`
	RunGeneratedAt     *time.Time `db:"run_generated_at"     gorm:"column:run_generated_at"`

	CompiledCode *string `db:"compiled_code" gorm:"column:compiled_code"`
	CompiledSQL  *string `db:"compiled_sql"  gorm:"column:compiled_sql"`
	RawCode      *string `db:"raw_code"      gorm:"column:raw_code"`
	RawSQL       *string `db:"raw_sql"       gorm:"column:raw_sql"`

	Description *string                     `db:"description" gorm:"column:description"`
	Meta        datatypes.JSONMap           `db:"meta"        gorm:"column:meta"`
	Tags        datatypes.JSONSlice[string] `db:"tags"        gorm:"column:tags"`
	Language    *string                     `db:"language"    gorm:"column:language"`
	DbtVersion  *string                     `db:"dbt_version" gorm:"column:dbt_version"`
	ThreadID    *string                     `db:"thread_id"   gorm:"column:thread_id"`
	Error       *string                     `db:"error"       gorm:"column:error"`

	DependsOn datatypes.JSONSlice[string] `db:"depends_on" gorm:"column:depends_on"`
}

func (Test) TableName() string {
	return "dbt_tests"
}

func NewTestFromEntity(scheduleName string, entity *entities.TestData) Test {
	return Test{
		ScheduleName:       scheduleName,
		UniqueID:           entity.UniqueID,
		Name:               entity.Name,
		ResourceType:       entity.ResourceType,
		RunID:              entity.RunID,
		InvocationID:       entity.InvocationID,
		ColumnName:         entity.ColumnName,
		State:              entity.State,
		Status:             entity.Status,
		Fail:               entity.Fail,
		Warn:               entity.Warn,
		Skip:               entity.Skip,
		ExecutionTime:      entity.ExecutionTime,
		RunElapsedTime:     entity.RunElapsedTime,
		CompileStartedAt:   entity.CompileStartedAt,
		CompileCompletedAt: entity.CompileCompletedAt,
		ExecuteStartedAt:   entity.ExecuteStartedAt,
		ExecuteCompletedAt: entity.ExecuteCompletedAt,
		RunGeneratedAt:     entity.RunGeneratedAt,
		CompiledCode:       entity.CompiledCode,
		CompiledSQL:        entity.CompiledSQL,
		RawCode:            entity.RawCode,
		RawSQL:             entity.RawSQL,
		Description:        entity.Description,
		Meta:               datatypes.JSONMap(entity.Meta),
		Tags:               datatypes.NewJSONSlice(entity.Tags),
		Language:           entity.Language,
		DbtVersion:         entity.DbtVersion,
		ThreadID:           entity.ThreadID,
		Error:              entity.Error,
		DependsOn:          datatypes.NewJSONSlice(entity.DependsOn),
	}
}

func (t Test) ToEntity() *entities.TestData {
	return &entities.TestData{
		UniqueID:           t.UniqueID,
		Name:               t.Name,
		ResourceType:       t.ResourceType,
		RunID:              t.RunID,
		InvocationID:       t.InvocationID,
		ColumnName:         t.ColumnName,
		State:              t.State,
		Status:             t.Status,
		Fail:               t.Fail,
		Warn:               t.Warn,
		Skip:               t.Skip,
		ExecutionTime:      t.ExecutionTime,
		RunElapsedTime:     t.RunElapsedTime,
		CompileStartedAt:   t.CompileStartedAt,
		CompileCompletedAt: t.CompileCompletedAt,
		ExecuteStartedAt:   t.ExecuteStartedAt,
		ExecuteCompletedAt: t.ExecuteCompletedAt,
		RunGeneratedAt:     t.RunGeneratedAt,
		CompiledCode:       t.CompiledCode,
		CompiledSQL:        t.CompiledSQL,
		RawCode:            t.RawCode,
		RawSQL:             t.RawSQL,
		Description:        t.Description,
		Meta:               map[string]any(t.Meta),
		Tags:               []string(t.Tags),
		Language:           t.Language,
		DbtVersion:         t.DbtVersion,
		ThreadID:           t.ThreadID,
		Error:              t.Error,
		DependsOn:          []string(t.DependsOn),
	}
}
