// Package main provides the db2fs command.
//
// db2fs connects to an Odoo server over XML-RPC and moves the payload of
// every attachment stored in the database into the filestore. Odoo 6.0 and
// 6.1 are migrated through the document module's storages, Odoo 7.0 and later
// through the ir_attachment.location parameter. A run can be repeated at any
// time, attachments that failed are retried and moved ones are left alone.
//
// Usage:
//
//	db2fs [flags] DBNAME
//	db2fs detect DBNAME
//	db2fs dump-config [--json]
package main
