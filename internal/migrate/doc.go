// Package migrate moves attachment payloads out of the Odoo database.
//
// The Engine logs in, checks that the session runs as the administrator,
// detects the server version and runs one of two migrators:
//
//   - LegacyMigrator for 6.0 and 6.1, which flips the document.storage of each
//     attachment's directory between the database and a filestore storage,
//     optionally preceded by a direct SQL conversion (BulkConverter).
//   - ModernMigrator for 7.0 and later, which sets ir_attachment.location and
//     rewrites every payload so the server stores it on disk.
//
// Both loops are sequential in ascending id order. A failing attachment is
// logged and reported, it never aborts the run, and a later run picks it up
// again.
package migrate
