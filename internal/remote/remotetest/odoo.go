// Package remotetest provides an in-memory Odoo implementing remote.Gateway.
//
// The fake mimics the storage behaviour db2fs relies on: with Routing set to
// RouteByDirectory (6.x document module) reads and writes of "datas" go
// through the storage of the attachment's directory, with RouteByConfig
// (7.0+) writes go to the filestore once ir_attachment.location is set.
package remotetest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/db2fs/db2fs/internal/remote"
)

// Routing selects how the fake stores written payloads.
type Routing int

const (
	// RouteByDirectory routes through document.directory.storage_id.
	RouteByDirectory Routing = iota
	// RouteByConfig routes through ir_attachment.location.
	RouteByConfig
)

// LocationKey is the config parameter selecting the attachment location.
const LocationKey = "ir_attachment.location"

// Module is a row of ir.module.module.
type Module struct {
	Name    string
	State   string
	Version string
}

// Attachment is a row of ir.attachment. Exactly one of Inline and External
// holds the payload once a migration is complete.
type Attachment struct {
	ID       int64
	Name     string
	Inline   string
	External string
	ParentID int64
}

// Storage is a row of document.storage.
type Storage struct {
	ID   int64
	Name string
	Type string
	Path string
}

// Odoo is the fake server. It is not safe for concurrent use.
type Odoo struct {
	UID     int64
	Routing Routing

	Modules     []*Module
	Attachments map[int64]*Attachment
	Directories map[int64]int64 // directory id -> storage id
	Storages    map[int64]*Storage
	Params      map[string]string

	// Fail lets a test inject a remote fault, returning nil lets the call through.
	Fail func(model, method string, ids []int64) error

	// Mutations counts write, create and method calls.
	Mutations int
	// Calls records every call as "model.method".
	Calls []string

	nextID int64
}

// New returns an empty fake logged in as uid.
func New(uid int64, routing Routing) *Odoo {
	return &Odoo{
		UID:         uid,
		Routing:     routing,
		Attachments: map[int64]*Attachment{},
		Directories: map[int64]int64{},
		Storages:    map[int64]*Storage{},
		Params:      map[string]string{},
		nextID:      1000,
	}
}

// AddStorage adds a document.storage and returns its id.
func (o *Odoo) AddStorage(name, typ, path string) int64 {
	o.nextID++
	o.Storages[o.nextID] = &Storage{ID: o.nextID, Name: name, Type: typ, Path: path}

	return o.nextID
}

// AddDirectory adds a document.directory using storage and returns its id.
func (o *Odoo) AddDirectory(storage int64) int64 {
	o.nextID++
	o.Directories[o.nextID] = storage

	return o.nextID
}

// AddAttachment stores an inline attachment under id.
func (o *Odoo) AddAttachment(id int64, name, payload string, parent int64) *Attachment {
	a := &Attachment{ID: id, Name: name, Inline: payload, ParentID: parent}
	o.Attachments[id] = a

	return a
}

// StorageCount returns the number of storages matching typ and path.
func (o *Odoo) StorageCount(typ, path string) int {
	n := 0

	for _, s := range o.Storages {
		if s.Type == typ && s.Path == path {
			n++
		}
	}

	return n
}

// Payload returns what a reader sees as the attachment's content once migrated.
func (a *Attachment) Payload() string {
	if a.External != "" {
		return a.External
	}

	return a.Inline
}

func (o *Odoo) sortedAttachmentIDs() []int64 {
	ids := make([]int64, 0, len(o.Attachments))
	for id := range o.Attachments {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

func (o *Odoo) record(model, method string, mutating bool) {
	o.Calls = append(o.Calls, model+"."+method)

	if mutating {
		o.Mutations++
	}
}

func (o *Odoo) fail(model, method string, ids []int64) error {
	if o.Fail == nil {
		return nil
	}

	return o.Fail(model, method, ids)
}

// Login implements remote.Gateway.
func (o *Odoo) Login(_ context.Context) (int64, error) {
	o.record("common", "login", false)

	if o.UID == 0 {
		return 0, remote.ErrLoginFailed
	}

	return o.UID, nil
}

// Search implements remote.Gateway.
func (o *Odoo) Search(_ context.Context, model string, domain remote.Domain, _ string) ([]int64, error) {
	o.record(model, "search", false)

	if err := o.fail(model, "search", nil); err != nil {
		return nil, err
	}

	var ids []int64

	for _, rec := range o.rows(model) {
		if matches(rec, domain) {
			ids = append(ids, rec.ID())
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids, nil
}

// Read implements remote.Gateway.
func (o *Odoo) Read(_ context.Context, model string, ids []int64, fields []string) ([]remote.Record, error) {
	o.record(model, "read", false)

	if err := o.fail(model, "read", ids); err != nil {
		return nil, err
	}

	rows := map[int64]remote.Record{}
	for _, rec := range o.rows(model) {
		rows[rec.ID()] = rec
	}

	out := make([]remote.Record, 0, len(ids))

	for _, id := range ids {
		rec, ok := rows[id]
		if !ok {
			return nil, &remote.Fault{Model: model, Method: "read", Message: fmt.Sprintf("record %d does not exist", id)}
		}

		r := remote.Record{"id": id}
		for _, f := range fields {
			if v, ok := rec[f]; ok {
				r[f] = v
			} else {
				r[f] = false
			}
		}

		out = append(out, r)
	}

	return out, nil
}

// Write implements remote.Gateway.
func (o *Odoo) Write(_ context.Context, model string, ids []int64, values remote.Values) (bool, error) {
	o.record(model, "write", true)

	if err := o.fail(model, "write", ids); err != nil {
		return false, err
	}

	for _, id := range ids {
		if err := o.writeOne(model, id, values); err != nil {
			return false, err
		}
	}

	return true, nil
}

func (o *Odoo) writeOne(model string, id int64, values remote.Values) error {
	switch model {
	case remote.ModelAttachment:
		a, ok := o.Attachments[id]
		if !ok {
			return &remote.Fault{Model: model, Method: "write", Message: fmt.Sprintf("attachment %d does not exist", id)}
		}

		if datas, ok := values["datas"].(string); ok {
			o.storeDatas(a, datas)
		}

		if v, ok := values["db_datas"]; ok && isFalse(v) {
			a.Inline = ""
		}

		if name, ok := values["name"].(string); ok {
			a.Name = name
		}
	case remote.ModelDirectory:
		storage, _ := values["storage_id"].(int64)
		o.Directories[id] = storage
	case remote.ModelConfigParam:
		key, _ := values["key"].(string)
		val, _ := values["value"].(string)

		for k := range o.Params {
			if paramID(k) == id {
				delete(o.Params, k)
			}
		}

		o.Params[key] = val
	default:
		return &remote.Fault{Model: model, Method: "write", Message: "unsupported model"}
	}

	return nil
}

// storeDatas writes a payload the way the server would route it.
func (o *Odoo) storeDatas(a *Attachment, datas string) {
	switch o.Routing {
	case RouteByDirectory:
		if s := o.Storages[o.Directories[a.ParentID]]; s != nil && s.Type == "filestore" {
			a.External = datas
			return
		}

		a.Inline = datas
	case RouteByConfig:
		if strings.HasPrefix(o.Params[LocationKey], "file") {
			a.External = datas
			return
		}

		a.Inline = datas
	}
}

// readDatas returns what the server answers for the "datas" field.
func (o *Odoo) readDatas(a *Attachment) any {
	var v string

	switch o.Routing {
	case RouteByDirectory:
		if s := o.Storages[o.Directories[a.ParentID]]; s != nil && s.Type == "filestore" {
			v = a.External
		} else {
			v = a.Inline
		}
	case RouteByConfig:
		v = a.Payload()
	}

	if v == "" {
		return false
	}

	return v
}

// Create implements remote.Gateway.
func (o *Odoo) Create(_ context.Context, model string, values remote.Values) (int64, error) {
	o.record(model, "create", true)

	if err := o.fail(model, "create", nil); err != nil {
		return 0, err
	}

	switch model {
	case remote.ModelStorage:
		name, _ := values["name"].(string)
		typ, _ := values["type"].(string)
		path, _ := values["path"].(string)

		return o.AddStorage(name, typ, path), nil
	case remote.ModelConfigParam:
		key, _ := values["key"].(string)
		val, _ := values["value"].(string)
		o.Params[key] = val

		return paramID(key), nil
	case remote.ModelModuleUpgrade:
		o.nextID++

		return o.nextID, nil
	default:
		return 0, &remote.Fault{Model: model, Method: "create", Message: "unsupported model"}
	}
}

// Call implements remote.Gateway.
func (o *Odoo) Call(_ context.Context, model, method string, _ ...any) (any, error) {
	o.record(model, method, true)

	if err := o.fail(model, method, nil); err != nil {
		return nil, err
	}

	switch model + "." + method {
	case remote.ModelModule + ".button_install":
		for _, m := range o.Modules {
			if m.Name == "document" && m.State != "installed" {
				m.State = "to install"
			}
		}
	case remote.ModelModuleUpgrade + ".upgrade_module":
		for _, m := range o.Modules {
			if m.State == "to install" {
				m.State = "installed"
			}
		}
	default:
		return nil, &remote.Fault{Model: model, Method: method, Message: "unsupported method"}
	}

	return true, nil
}

// rows renders the current state of model as records.
func (o *Odoo) rows(model string) []remote.Record {
	var out []remote.Record

	switch model {
	case remote.ModelModule:
		for i, m := range o.Modules {
			out = append(out, remote.Record{
				"id":             int64(i + 1),
				"name":           m.Name,
				"state":          m.State,
				"latest_version": falseIfEmpty(m.Version),
			})
		}
	case remote.ModelAttachment:
		for _, id := range o.sortedAttachmentIDs() {
			a := o.Attachments[id]
			rec := remote.Record{
				"id":       a.ID,
				"name":     a.Name,
				"db_datas": falseIfEmpty(a.Inline),
				"datas":    o.readDatas(a),
			}

			if a.ParentID != 0 {
				rec["parent_id"] = []any{a.ParentID, "Documents"}
			} else {
				rec["parent_id"] = false
			}

			out = append(out, rec)
		}
	case remote.ModelDirectory:
		for id, storage := range o.Directories {
			out = append(out, remote.Record{"id": id, "storage_id": []any{storage, "storage"}})
		}
	case remote.ModelStorage:
		for _, s := range o.Storages {
			out = append(out, remote.Record{"id": s.ID, "name": s.Name, "type": s.Type, "path": falseIfEmpty(s.Path)})
		}
	case remote.ModelConfigParam:
		for k, v := range o.Params {
			out = append(out, remote.Record{"id": paramID(k), "key": k, "value": v})
		}
	}

	return out
}

func paramID(key string) int64 {
	var h int64 = 7
	for _, c := range key {
		h = h*31 + int64(c)
	}

	if h < 0 {
		h = -h
	}

	return h%1_000_000 + 1
}

func falseIfEmpty(s string) any {
	if s == "" {
		return false
	}

	return s
}

func isFalse(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case string:
		return x == ""
	default:
		return false
	}
}

func normalize(v any) any {
	switch x := v.(type) {
	case []any:
		if len(x) > 0 {
			return normalize(x[0])
		}

		return false
	case int:
		return int64(x)
	case string:
		if x == "" {
			return false
		}

		return x
	case nil:
		return false
	default:
		return x
	}
}

func matches(rec remote.Record, domain remote.Domain) bool {
	for _, c := range domain {
		equal := normalize(rec[c.Field]) == normalize(c.Value)

		switch c.Operator {
		case "=":
			if !equal {
				return false
			}
		case "!=":
			if equal {
				return false
			}
		default:
			return false
		}
	}

	return true
}
