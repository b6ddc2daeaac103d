// Package version finds out which Odoo release a server runs and which
// migration strategy applies to it.
package version
