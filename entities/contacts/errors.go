package contacts

// Error codes 140-159.
const (
	CONTACTS_INVALID_REQUEST_DATA = iota + 140
	CANNOT_INSERT_CONTACT_TO_MONGODB
	CANNOT_FIND_CONTACTS_IN_MONGODB
	CANNOT_FIND_CONTACT_BY_ID_IN_MONGODB
	CANNOT_UPDATE_CONTACT_IN_MONGODB
	CANNOT_DELETE_CONTACT_IN_MONGODB
	CANNOT_CHANGE_CONTACT_STAGE
)
