package pipelines

// Error codes 100-119.
const (
	PIPELINES_INVALID_REQUEST_DATA = iota + 100
	CANNOT_INSERT_PIPELINE_TO_MONGODB
	CANNOT_FIND_PIPELINES_IN_MONGODB
	CANNOT_FIND_PIPELINE_BY_ID_IN_MONGODB
	CANNOT_UPDATE_PIPELINE_IN_MONGODB
	CANNOT_DELETE_PIPELINE_IN_MONGODB
	CANNOT_FIND_STAGES_IN_MONGODB
	CANNOT_REORDER_STAGES_IN_MONGODB
	CANNOT_BUILD_BOARD_FROM_MONGODB
)
