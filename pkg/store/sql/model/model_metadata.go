package model

import (
	"gorm.io/datatypes"

	"github.com/pipemeta/pipemeta/pkg/entities"
)

// ModelMetadata mapped from table <model_metadata>. Holds the manifest's
// dependency edges; the lineage traversals walk this table.
type ModelMetadata struct {
	ID           uint   `db:"id"            gorm:"column:id;primaryKey;autoIncrement"`
	ScheduleName string `db:"schedule_name" gorm:"column:schedule_name;index"`
	UniqueID     string `db:"unique_id"     gorm:"column:unique_id"`
	Name         string `db:"name"          gorm:"column:name"`
	ResourceType string `db:"resource_type" gorm:"column:resource_type"`

	DependsOn datatypes.JSONSlice[string] `db:"depends_on" gorm:"column:depends_on"`
	Config    datatypes.JSONMap           `db:"config"     gorm:"column:config"`
	Tags      datatypes.JSONSlice[string] `db:"tags"       gorm:"column:tags"`
	Meta      datatypes.JSONMap           `db:"meta"       gorm:"column:meta"`

	Description      *string           `db:"description"       gorm:"column:description"`
	SchemaName       *string           `db:"schema_name"       gorm:"column:schema_name"`
	DatabaseName     *string           `db:"database_name"     gorm:"column:database_name"`
	Alias            *string           `db:"alias"             gorm:"column:alias"`
	MaterializedType *string           `db:"materialized_type" gorm:"column:materialized_type"`
	Access           *string           `db:"access"            gorm:"column:access"`
	Language         *string           `db:"language"          gorm:"column:language"`
	PackageName      *string           `db:"package_name"      gorm:"column:package_name"`
	Owner            *string           `db:"owner"             gorm:"column:owner"`
	CompiledSQL      *string           `db:"compiled_sql"      gorm:"column:compiled_sql"`
	RawSQL           *string           `db:"raw_sql"           gorm:"column:raw_sql"`
	Columns          datatypes.JSONMap `db:"columns"           gorm:"column:columns"`

	Parents        datatypes.JSONSlice[string] `db:"parents"         gorm:"column:parents"`
	Children       datatypes.JSONSlice[string] `db:"children"        gorm:"column:children"`
	ParentsModels  datatypes.JSONSlice[string] `db:"parents_models"  gorm:"column:parents_models"`
	ParentsSources datatypes.JSONSlice[string] `db:"parents_sources" gorm:"column:parents_sources"`

	OriginalFilePath *string `db:"original_file_path" gorm:"column:original_file_path"`
	RootPath         *string `db:"root_path"          gorm:"column:root_path"`
}

func (ModelMetadata) TableName() string {
	return "model_metadata"
}

func NewModelMetadataFromEntity(scheduleName string, entity *entities.ModelMetadata) ModelMetadata {
	return ModelMetadata{
		ScheduleName:     scheduleName,
		UniqueID:         entity.UniqueID,
		Name:             entity.Name,
		ResourceType:     entity.ResourceType,
		DependsOn:        datatypes.NewJSONSlice(entity.DependsOn),
		Config:           datatypes.JSONMap(entity.Config),
		Tags:             datatypes.NewJSONSlice(entity.Tags),
		Meta:             datatypes.JSONMap(entity.Meta),
		Description:      entity.Description,
		SchemaName:       entity.SchemaName,
		DatabaseName:     entity.DatabaseName,
		Alias:            entity.Alias,
		MaterializedType: entity.MaterializedType,
		Access:           entity.Access,
		Language:         entity.Language,
		PackageName:      entity.PackageName,
		Owner:            entity.Owner,
		CompiledSQL:      entity.CompiledSQL,
		RawSQL:           entity.RawSQL,
		Columns:          datatypes.JSONMap(entity.Columns),
		Parents:          datatypes.NewJSONSlice(entity.Parents),
		Children:         datatypes.NewJSONSlice(entity.Children),
		ParentsModels:    datatypes.NewJSONSlice(entity.ParentsModels),
		ParentsSources:   datatypes.NewJSONSlice(entity.ParentsSources),
		OriginalFilePath: entity.OriginalFilePath,
		RootPath:         entity.RootPath,
	}
}

func (m ModelMetadata) ToEntity() *entities.ModelMetadata {
	return &entities.ModelMetadata{
		UniqueID:         m.UniqueID,
		Name:             m.Name,
		ResourceType:     m.ResourceType,
		DependsOn:        []string(m.DependsOn),
		Config:           map[string]any(m.Config),
		Tags:             []string(m.Tags),
		Meta:             map[string]any(m.Meta),
		Description:      m.Description,
		SchemaName:       m.SchemaName,
		DatabaseName:     m.DatabaseName,
		Alias:            m.Alias,
		MaterializedType: m.MaterializedType,
		Access:           m.Access,
		Language:         m.Language,
		PackageName:      m.PackageName,
		Owner:            m.Owner,
		CompiledSQL:      m.CompiledSQL,
		RawSQL:           m.RawSQL,
		Columns:          map[string]any(m.Columns),
		Parents:          []string(m.Parents),
		Children:         []string(m.Children),
		ParentsModels:    []string(m.ParentsModels),
		ParentsSources:   []string(m.ParentsSources),
		OriginalFilePath: m.OriginalFilePath,
		RootPath:         m.RootPath,
	}
}
