package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/rpc"
	"time"

	"github.com/kolo/xmlrpc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Options holds the connection settings of a Client.
type Options struct {
	Protocol string
	Host     string
	Port     int
	Database string
	User     string
	Password string
	Timeout  time.Duration
}

// URL returns the base url of the Odoo server.
func (o Options) URL() string {
	return fmt.Sprintf("%s://%s:%d", o.Protocol, o.Host, o.Port)
}

// Client implements Gateway over Odoo's XML-RPC endpoints.
// It is not safe for concurrent use.
type Client struct {
	opts   Options
	common *xmlrpc.Client
	object *xmlrpc.Client
	uid    int64
}

// NewClient creates the xmlrpc/common and xmlrpc/object clients.
// No request is sent before Login.
func NewClient(opts Options) (*Client, error) {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: opts.Timeout,
	}

	common, err := xmlrpc.NewClient(opts.URL()+"/xmlrpc/common", transport)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create xmlrpc common client")
	}

	object, err := xmlrpc.NewClient(opts.URL()+"/xmlrpc/object", transport)
	if err != nil {
		_ = common.Close()

		return nil, errors.Wrap(err, "failed to create xmlrpc object client")
	}

	return &Client{
		opts:   opts,
		common: common,
		object: object,
	}, nil
}

// Close releases both xmlrpc clients.
func (c *Client) Close() error {
	errCommon := c.common.Close()
	errObject := c.object.Close()

	if errCommon != nil {
		return errors.Wrap(errCommon, "failed to close xmlrpc common client")
	}

	return errors.Wrap(errObject, "failed to close xmlrpc object client")
}

// UID returns the uid of the last successful login.
func (c *Client) UID() int64 {
	return c.uid
}

// Login implements Gateway.
func (c *Client) Login(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err //nolint:wrapcheck
	}

	var reply any

	if err := c.common.Call("login", []any{c.opts.Database, c.opts.User, c.opts.Password}, &reply); err != nil {
		return 0, c.wrap(err, "common", "login")
	}

	uid, ok := toInt64(reply)
	if !ok || uid == 0 {
		return 0, errors.Wrapf(ErrLoginFailed, "user %q on database %q", c.opts.User, c.opts.Database)
	}

	c.uid = uid

	log.Debug().Int64("uid", uid).Str("url", c.opts.URL()).Msg("logged in to odoo")

	return uid, nil
}

// Search implements Gateway.
func (c *Client) Search(ctx context.Context, model string, domain Domain, order string) ([]int64, error) {
	var orderArg any = false
	if order != "" {
		orderArg = order
	}

	reply, err := c.execute(ctx, model, "search", domain.encode(), 0, false, orderArg)
	if err != nil {
		return nil, err
	}

	list, ok := reply.([]any)
	if !ok {
		return nil, errors.Wrapf(ErrUnexpectedReply, "%s.search returned %T", model, reply)
	}

	ids := make([]int64, 0, len(list))

	for _, v := range list {
		id, ok := toInt64(v)
		if !ok {
			return nil, errors.Wrapf(ErrUnexpectedReply, "%s.search returned id %T", model, v)
		}

		ids = append(ids, id)
	}

	return ids, nil
}

// Read implements Gateway.
func (c *Client) Read(ctx context.Context, model string, ids []int64, fields []string) ([]Record, error) {
	reply, err := c.execute(ctx, model, "read", ids, fields)
	if err != nil {
		return nil, err
	}

	list, ok := reply.([]any)
	if !ok {
		return nil, errors.Wrapf(ErrUnexpectedReply, "%s.read returned %T", model, reply)
	}

	records := make([]Record, 0, len(list))

	for _, v := range list {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, errors.Wrapf(ErrUnexpectedReply, "%s.read returned row %T", model, v)
		}

		records = append(records, Record(m))
	}

	return records, nil
}

// Write implements Gateway.
func (c *Client) Write(ctx context.Context, model string, ids []int64, values Values) (bool, error) {
	reply, err := c.execute(ctx, model, "write", ids, map[string]any(values))
	if err != nil {
		return false, err
	}

	ok, _ := reply.(bool)

	return ok, nil
}

// Create implements Gateway.
func (c *Client) Create(ctx context.Context, model string, values Values) (int64, error) {
	reply, err := c.execute(ctx, model, "create", map[string]any(values))
	if err != nil {
		return 0, err
	}

	id, ok := toInt64(reply)
	if !ok {
		return 0, errors.Wrapf(ErrUnexpectedReply, "%s.create returned %T", model, reply)
	}

	return id, nil
}

// Call implements Gateway.
func (c *Client) Call(ctx context.Context, model, method string, args ...any) (any, error) {
	return c.execute(ctx, model, method, args...)
}

func (c *Client) execute(ctx context.Context, model, method string, args ...any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err //nolint:wrapcheck
	}

	if c.uid == 0 {
		return nil, ErrNotLoggedIn
	}

	params := append([]any{c.opts.Database, c.uid, c.opts.Password, model, method}, args...)

	log.Trace().Str("model", model).Str("method", method).Msg("xmlrpc execute")

	var reply any
	if err := c.object.Call("execute", params, &reply); err != nil {
		return nil, c.wrap(err, model, method)
	}

	return reply, nil
}

func (c *Client) wrap(err error, model, method string) error {
	var se rpc.ServerError
	if errors.As(err, &se) {
		return newFault(model, method, se)
	}

	return errors.Wrapf(err, "xmlrpc call %s.%s", model, method)
}
