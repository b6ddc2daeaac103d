package remote

import (
	"errors"
	"fmt"
	"net/rpc"
	"regexp"
	"strconv"
)

var (
	// ErrLoginFailed is returned when Odoo rejects the credentials.
	ErrLoginFailed = errors.New("odoo login failed")

	// ErrNotLoggedIn is returned when an object call is made before Login.
	ErrNotLoggedIn = errors.New("odoo client is not logged in")

	// ErrUnexpectedReply is returned when a reply can't be converted to the expected type.
	ErrUnexpectedReply = errors.New("unexpected odoo reply")
)

var faultRx = regexp.MustCompile(`(?s)^Fault\((-?\d+)\): (.*)$`)

// Fault is an error raised on the Odoo side.
type Fault struct {
	Model   string
	Method  string
	Code    int
	Message string
}

// Error implements error.
func (f *Fault) Error() string {
	return fmt.Sprintf("odoo fault on %s.%s (code %d): %s", f.Model, f.Method, f.Code, f.Message)
}

// IsFault reports whether err carries a remote fault.
func IsFault(err error) bool {
	var f *Fault

	return errors.As(err, &f)
}

// newFault converts the server error net/rpc hands back for an XML-RPC fault.
func newFault(model, method string, se rpc.ServerError) *Fault {
	f := &Fault{Model: model, Method: method, Message: string(se)}

	if m := faultRx.FindStringSubmatch(string(se)); m != nil {
		f.Code, _ = strconv.Atoi(m[1])
		f.Message = m[2]
	}

	return f
}
