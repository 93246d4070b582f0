package database

import (
	"api/utils"
	"os"
	"time"
)

const (
	MONGO_TIMEOUT = 20 * time.Second

	COLLECTION_USERS                = "users"
	COLLECTION_ORGANIZATIONS        = "organizations"
	COLLECTION_CONTACTS             = "contacts"
	COLLECTION_PIPELINES            = "pipelines"
	COLLECTION_PIPELINE_STAGES      = "pipeline_stages"
	COLLECTION_PIPELINE_STATES      = "contact_pipeline_states"
	COLLECTION_STAGE_HISTORY        = "contact_stage_history"
	COLLECTION_INTERACTIONS         = "interactions"
	COLLECTION_TASKS                = "tasks"
	COLLECTION_METRICS_SNAPSHOTS    = "metrics_snapshots"
	COLLECTION_SELLSY_LINKS         = "sellsy_links"
	COLLECTION_AUDIT_LOGS           = "audit_logs"
	COLLECTION_INTEGRATION_SETTINGS = "integration_settings"
)

func GetDB() string {
	environment := os.Getenv(utils.ENV)

	if environment == utils.ENV_RELEASE {
		return "production"
	}

	if environment == utils.ENV_HOMOLOG {
		return "homolog"
	}

	if environment == utils.ENV_DEVELOPMENT {
		return "development"
	}

	panic("[MongoDB] Invalid DB name")
}
