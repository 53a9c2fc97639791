package model

import (
	"time"

	"gorm.io/datatypes"

	"github.com/pipemeta/pipemeta/pkg/entities"
)

// Snapshot mapped from table <dbt_snapshots>.
type Snapshot struct {
	ID           uint   `db:"id"            gorm:"column:id;primaryKey;autoIncrement"`
	ScheduleName string `db:"schedule_name" gorm:"column:schedule_name;index"`
	UniqueID     string `db:"unique_id"     gorm:"column:unique_id"`
	Name         string `db:"name"          gorm:"column:name"`
	ResourceType string `db:"resource_type" gorm:"column:resource_type"`

	Database   *string `db:"database"    gorm:"column:database"`
	SchemaName *string `db:"schema_name" gorm:"column:schema_name"`
	Alias      *string `db:"alias"       gorm:"column:alias"`

	Status         *string  `db:"status"           gorm:"column:status"`
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

	Description *string                     `db:"description"  gorm:"column:description"`
	Comment     *string                     `db:"comment"      gorm:"column:comment"`
	Meta        datatypes.JSONMap           `db:"meta"         gorm:"column:meta"`
	Tags        datatypes.JSONSlice[string] `db:"tags"         gorm:"column:tags"`
	Owner       *string                     `db:"owner"        gorm:"column:owner"`
	PackageName *string                     `db:"package_name" gorm:"column:package_name"`

	Error    *string `db:"error"     gorm:"column:error"`
	Skip     bool    `db:"skip"      gorm:"column:skip"`
	ThreadID *string `db:"thread_id" gorm:"column:thread_id"`
	Type     *string `db:"type"      gorm:"column:type"`

	ChildrenL1 datatypes.JSONSlice[string] `db:"children_l1" gorm:"column:children_l1"`
	Columns    datatypes.JSONMap           `db:"columns"     gorm:"column:columns"`
	Stats      datatypes.JSONMap           `db:"stats"       gorm:"column:stats"`

	DependsOn      datatypes.JSONSlice[string] `db:"depends_on"      gorm:"column:depends_on"`
	ParentsModels  datatypes.JSONSlice[string] `db:"parents_models"  gorm:"column:parents_models"`
	ParentsSources datatypes.JSONSlice[string] `db:"parents_sources" gorm:"column:parents_sources"`
}

func (Snapshot) TableName() string {
	return "dbt_snapshots"
}

func NewSnapshotFromEntity(scheduleName string, entity *entities.SnapshotData) Snapshot {
	return Snapshot{
		ScheduleName:       scheduleName,
		UniqueID:           entity.UniqueID,
		Name:               entity.Name,
		ResourceType:       entity.ResourceType,
		Database:           entity.Database,
		SchemaName:         entity.SchemaName,
		Alias:              entity.Alias,
		Status:             entity.Status,
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
		Comment:            entity.Comment,
		Meta:               datatypes.JSONMap(entity.Meta),
		Tags:               datatypes.NewJSONSlice(entity.Tags),
		Owner:              entity.Owner,
		PackageName:        entity.PackageName,
		Error:              entity.Error,
		Skip:               entity.Skip,
		ThreadID:           entity.ThreadID,
		Type:               entity.Type,
		ChildrenL1:         datatypes.NewJSONSlice(entity.ChildrenL1),
		Columns:            datatypes.JSONMap(entity.Columns),
		Stats:              datatypes.JSONMap(entity.Stats),
		DependsOn:          datatypes.NewJSONSlice(entity.DependsOn),
		ParentsModels:      datatypes.NewJSONSlice(entity.ParentsModels),
		ParentsSources:     datatypes.NewJSONSlice(entity.ParentsSources),
	}
}

func (s Snapshot) ToEntity() *entities.SnapshotData {
	return &entities.SnapshotData{
		UniqueID:           s.UniqueID,
		Name:               s.Name,
		ResourceType:       s.ResourceType,
		Database:           s.Database,
		SchemaName:         s.SchemaName,
		Alias:              s.Alias,
		Status:             s.Status,
		ExecutionTime:      s.ExecutionTime,
		RunElapsedTime:     s.RunElapsedTime,
		CompileStartedAt:   s.CompileStartedAt,
		CompileCompletedAt: s.CompileCompletedAt,
		ExecuteStartedAt:   s.ExecuteStartedAt,
		ExecuteCompletedAt: s.ExecuteCompletedAt,
		RunGeneratedAt:     s.RunGeneratedAt,
		CompiledCode:       s.CompiledCode,
		CompiledSQL:        s.CompiledSQL,
		RawCode:            s.RawCode,
		RawSQL:             s.RawSQL,
		Description:        s.Description,
		Comment:            s.Comment,
		Meta:               map[string]any(s.Meta),
		Tags:               []string(s.Tags),
		Owner:              s.Owner,
		PackageName:        s.PackageName,
		Error:              s.Error,
		Skip:               s.Skip,
		ThreadID:           s.ThreadID,
		Type:               s.Type,
		ChildrenL1:         []string(s.ChildrenL1),
		Columns:            map[string]any(s.Columns),
		Stats:              map[string]any(s.Stats),
		DependsOn:          []string(s.DependsOn),
		ParentsModels:      []string(s.ParentsModels),
		ParentsSources:     []string(s.ParentsSources),
	}
}
