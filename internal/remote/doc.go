// Package remote implements the typed gateway db2fs uses to talk to an Odoo server.
//
// Only the operations the migration needs are exposed: login, search, read,
// write, create and calling a named model method. Every call runs through the
// XML-RPC "object" endpoint with the database, uid and password established at
// login. Remote faults are returned as *Fault.
package remote
