package remote

// Odoo model names used by db2fs.
const (
	ModelAttachment    = "ir.attachment"
	ModelConfigParam   = "ir.config_parameter"
	ModelModule        = "ir.module.module"
	ModelModuleUpgrade = "base.module.upgrade"
	ModelDirectory     = "document.directory"
	ModelStorage       = "document.storage"
)

// OrderByID sorts search results by ascending id.
const OrderByID = "id asc"
