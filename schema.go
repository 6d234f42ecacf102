package mcastlog

import "context"

type SchemaModel string

const (
	SchemaNotDefined SchemaModel = ""
	SchemaNone       SchemaModel = "none" // when you really don't want any automatic fields
	SchemaFlat       SchemaModel = "mcastlog/flat"
	SchemaECS        SchemaModel = "mcastlog/ECS"
)

// ResolveSchema prefers the plugin's own schema, then the pipeline's.
func ResolveSchema(ctx context.Context, own SchemaModel) SchemaModel {
	if own != SchemaNotDefined {
		return own
	}
	if pipelineSchema, ok := ctx.Value(ContextKeySchema).(SchemaModel); ok {
		return pipelineSchema
	}
	return SchemaECS
}
