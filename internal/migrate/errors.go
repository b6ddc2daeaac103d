package migrate

import (
	"errors"

	"github.com/db2fs/db2fs/internal/remote"
	"github.com/db2fs/db2fs/internal/version"
)

var (
	// ErrNoFilestorePath is returned when a 6.x migration runs without a filestore path.
	ErrNoFilestorePath = errors.New("filestore path is required for odoo 6.0 and 6.1")

	// ErrFilestorePathNotFound is returned when the filestore path is not an existing directory.
	ErrFilestorePathNotFound = errors.New("filestore path does not exist")

	// ErrStorageAlreadyExists is reserved, an existing filestore storage is reused.
	ErrStorageAlreadyExists = errors.New("document storage already exists")

	// ErrDocumentModuleNotInstalled is returned when 'document' is missing and may not be installed.
	ErrDocumentModuleNotInstalled = errors.New("the 'document' module is not installed")

	// ErrAttachmentsAlreadyInFilestore is reserved, a finished migration is a no-op.
	ErrAttachmentsAlreadyInFilestore = errors.New("attachments are already in a filestore")

	// ErrNotAdminUser is returned when the login does not resolve to the administrator.
	ErrNotAdminUser = errors.New("db2fs has to run as the admin user (id=1)")

	// ErrNoDsn is returned when the manual conversion is requested without a DSN.
	ErrNoDsn = errors.New("a DSN is required for the manual attachment conversion")

	// ErrNoParentDirectory marks an attachment that lives outside any document.directory.
	ErrNoParentDirectory = errors.New("attachment has no parent directory")

	// ErrRootDirectoryNotFound is returned when ir_model_data has no dir_root entry.
	ErrRootDirectoryNotFound = errors.New("root document directory not found")

	// ErrDatabaseStorageNotFound is returned when no document.storage of type db exists.
	ErrDatabaseStorageNotFound = errors.New("database document storage not found")

	// ErrWriteRejected marks a write the server answered with false.
	ErrWriteRejected = errors.New("odoo rejected the write")

	// ErrStillInline marks an attachment whose payload is still stored in the database after the write.
	ErrStillInline = errors.New("attachment is still stored in the database")
)

// Exit codes returned by the db2fs binary.
const (
	ExitOK                            = 0
	ExitFailure                       = 1
	ExitVersionNotFound               = 2
	ExitNoFilestorePath               = 3
	ExitFilestorePathNotFound         = 4
	ExitStorageAlreadyExists          = 5
	ExitDocumentModuleNotInstalled    = 6
	ExitAttachmentsAlreadyInFilestore = 7
	ExitNotAdminUser                  = 8
	ExitNoDsn                         = 9
)

var exitCodes = []struct { //nolint:gochecknoglobals
	err  error
	code int
}{
	{version.ErrVersionNotFound, ExitVersionNotFound},
	{ErrNoFilestorePath, ExitNoFilestorePath},
	{ErrFilestorePathNotFound, ExitFilestorePathNotFound},
	{ErrStorageAlreadyExists, ExitStorageAlreadyExists},
	{ErrDocumentModuleNotInstalled, ExitDocumentModuleNotInstalled},
	{ErrAttachmentsAlreadyInFilestore, ExitAttachmentsAlreadyInFilestore},
	{ErrNotAdminUser, ExitNotAdminUser},
	// a rejected login never resolves to the admin uid either
	{remote.ErrLoginFailed, ExitNotAdminUser},
	{ErrNoDsn, ExitNoDsn},
}

// ExitCode maps an error returned by the Engine to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	for _, e := range exitCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}

	return ExitFailure
}
