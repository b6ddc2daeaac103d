// Package models contains the Odoo table definitions touched by direct SQL.
package models

// Attachment is a row of ir_attachment as seen by the manual conversion.
type Attachment struct {
	ID       int64  `gorm:"primaryKey"`
	Name     string `gorm:"column:name"`
	ParentID *int64 `gorm:"column:parent_id"`
	DBDatas  []byte `gorm:"column:db_datas"`
	FileSize int64  `gorm:"column:file_size"`
}

// TableName implements gorm's tabler.
func (Attachment) TableName() string {
	return "ir_attachment"
}

// ModelData is a row of ir_model_data, Odoo's xml id to record index.
type ModelData struct {
	ID     int64  `gorm:"primaryKey"`
	Name   string `gorm:"column:name"`
	Module string `gorm:"column:module"`
	Model  string `gorm:"column:model"`
	ResID  int64  `gorm:"column:res_id"`
}

// TableName implements gorm's tabler.
func (ModelData) TableName() string {
	return "ir_model_data"
}
