package model

import (
	"time"

	"gorm.io/datatypes"

	"github.com/pipemeta/pipemeta/pkg/entities"
)

// Exposure mapped from table <dbt_exposures>.
type Exposure struct {
	ID           uint    `db:"id"            gorm:"column:id;primaryKey;autoIncrement"`
	ScheduleName string  `db:"schedule_name" gorm:"column:schedule_name;index"`
	UniqueID     string  `db:"unique_id"     gorm:"column:unique_id"`
	Name         *string `db:"name"          gorm:"column:name"`
	ResourceType string  `db:"resource_type" gorm:"column:resource_type"`

	RunID        *string `db:"run_id"        gorm:"column:run_id"`
	ExposureType *string `db:"exposure_type" gorm:"column:exposure_type"`
	Maturity     *string `db:"maturity"      gorm:"column:maturity"`
	OwnerName    *string `db:"owner_name"    gorm:"column:owner_name"`
	OwnerEmail   *string `db:"owner_email"   gorm:"column:owner_email"`
	URL          *string `db:"url"           gorm:"column:url"`
	PackageName  *string `db:"package_name"  gorm:"column:package_name"`

	Status        *string  `db:"status"         gorm:"column:status"`
	ExecutionTime *float64 `db:"execution_time" gorm:"column:execution_time"`
	ThreadID      *string  `db:"thread_id"      gorm:"column:thread_id"`

	CompileStartedAt    *time.Time `db:"compile_started_at"    gorm:"column:compile_started_at"`
	CompileCompletedAt  *time.Time `db:"compile_completed_at"  gorm:"column:compile_completed_at"`
	ExecuteStartedAt    *time.Time `db:"execute_started_at"    gorm:"column:execute_started_at"`
	ExecuteCompletedAt  *time.Time `db:"execute_completed_at"  gorm:"column:execute_completed_at"`
	ManifestGeneratedAt *time.Time `db:"manifest_generated_at" gorm:"column:manifest_generated_at"`

	Description *string                     `db:"description" gorm:"column:description"`
	Meta        datatypes.JSONMap           `db:"meta"        gorm:"column:meta"`
	Tags        datatypes.JSONSlice[string] `db:"tags"        gorm:"column:tags"`
	DbtVersion  *string                     `db:"dbt_version" gorm:"column:dbt_version"`

	DependsOn      datatypes.JSONSlice[string] `db:"depends_on"      gorm:"column:depends_on"`
	Parents        datatypes.JSONSlice[string] `db:"parents"         gorm:"column:parents"`
	ParentsModels  datatypes.JSONSlice[string] `db:"parents_models"  gorm:"column:parents_models"`
	ParentsSources datatypes.JSONSlice[string] `db:"parents_sources" gorm:"column:parents_sources"`
}

func (Exposure) TableName() string {
	return "dbt_exposures"
}

func NewExposureFromEntity(scheduleName string, entity *entities.ExposureData) Exposure {
	return Exposure{
		ScheduleName:        scheduleName,
		UniqueID:            entity.UniqueID,
		Name:                entity.Name,
		ResourceType:        entity.ResourceType,
		RunID:               entity.RunID,
		ExposureType:        entity.ExposureType,
		Maturity:            entity.Maturity,
		OwnerName:           entity.OwnerName,
		OwnerEmail:          entity.OwnerEmail,
		URL:                 entity.URL,
		PackageName:         entity.PackageName,
		Status:              entity.Status,
		ExecutionTime:       entity.ExecutionTime,
		ThreadID:            entity.ThreadID,
		CompileStartedAt:    entity.CompileStartedAt,
		CompileCompletedAt:  entity.CompileCompletedAt,
		ExecuteStartedAt:    entity.ExecuteStartedAt,
		ExecuteCompletedAt:  entity.ExecuteCompletedAt,
		ManifestGeneratedAt: entity.ManifestGeneratedAt,
		Description:         entity.Description,
		Meta:                datatypes.JSONMap(entity.Meta),
		Tags:                datatypes.NewJSONSlice(entity.Tags),
		DbtVersion:          entity.DbtVersion,
		DependsOn:           datatypes.NewJSONSlice(entity.DependsOn),
		Parents:             datatypes.NewJSONSlice(entity.Parents),
		ParentsModels:       datatypes.NewJSONSlice(entity.ParentsModels),
		ParentsSources:      datatypes.NewJSONSlice(entity.ParentsSources),
	}
}

func (e Exposure) ToEntity() *entities.ExposureData {
	return &entities.ExposureData{
		UniqueID:            e.UniqueID,
		Name:                e.Name,
		ResourceType:        e.ResourceType,
		RunID:               e.RunID,
		ExposureType:        e.ExposureType,
		Maturity:            e.Maturity,
		OwnerName:           e.OwnerName,
		OwnerEmail:          e.OwnerEmail,
		URL:                 e.URL,
		PackageName:         e.PackageName,
		Status:              e.Status,
		ExecutionTime:       e.ExecutionTime,
		ThreadID:            e.ThreadID,
		CompileStartedAt:    e.CompileStartedAt,
		CompileCompletedAt:  e.CompileCompletedAt,
		ExecuteStartedAt:    e.ExecuteStartedAt,
		ExecuteCompletedAt:  e.ExecuteCompletedAt,
		ManifestGeneratedAt: e.ManifestGeneratedAt,
		Description:         e.Description,
		Meta:                map[string]any(e.Meta),
		Tags:                []string(e.Tags),
		DbtVersion:          e.DbtVersion,
		DependsOn:           []string(e.DependsOn),
		Parents:             []string(e.Parents),
		ParentsModels:       []string(e.ParentsModels),
		ParentsSources:      []string(e.ParentsSources),
	}
}
