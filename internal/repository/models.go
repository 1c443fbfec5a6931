// Package repository keeps a catalog of built reports in a SQL database.
package repository

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/webpack-chart/internal/sizetree"
)

// DefaultTopEntries is how many top-level entries a record keeps.
const DefaultTopEntries = 10

// ReportRecord represents the report_records table.
type ReportRecord struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Source      string    `gorm:"column:source;type:varchar(1024)" json:"source"`
	PublicPath  string    `gorm:"column:public_path;type:varchar(512)" json:"publicPath"`
	TotalSize   int64     `gorm:"column:total_size" json:"totalSize"`
	ModuleCount int       `gorm:"column:module_count" json:"moduleCount"`
	NodeCount   int       `gorm:"column:node_count" json:"nodeCount"`
	MaxDepth    int       `gorm:"column:max_depth" json:"maxDepth"`
	TopLevel    JSONField `gorm:"column:top_level;type:json" json:"topLevel"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime;index" json:"createdAt"`
}

// TableName returns the table name for ReportRecord.
func (ReportRecord) TableName() string {
	return "report_records"
}

// Entry is one top-level segment of a recorded tree.
type Entry struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// NewReportRecord summarises a built tree. Only the first topN root children
// are kept; topN <= 0 keeps DefaultTopEntries.
func NewReportRecord(source string, tree *sizetree.Tree, topN int) (*ReportRecord, error) {
	if topN <= 0 {
		topN = DefaultTopEntries
	}

	rec := &ReportRecord{
		Source:      source,
		PublicPath:  tree.Root.Label,
		TotalSize:   tree.TotalSize,
		ModuleCount: tree.ModuleCount,
		NodeCount:   tree.NodeCount,
		MaxDepth:    tree.MaxDepth,
	}

	children := tree.Root.Children
	if len(children) > topN {
		children = children[:topN]
	}
	entries := make([]Entry, len(children))
	for i, c := range children {
		entries[i] = Entry{Label: c.Label, Value: c.Value}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	rec.TopLevel = data
	return rec, nil
}

// Entries decodes the stored top-level entries.
func (r *ReportRecord) Entries() ([]Entry, error) {
	var entries []Entry
	if r.TopLevel == nil {
		return entries, nil
	}
	if err := json.Unmarshal(r.TopLevel, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// JSONField is a raw JSON column.
type JSONField []byte

// Value implements driver.Valuer interface.
func (j JSONField) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return string(j), nil
}

// Scan implements sql.Scanner interface.
func (j *JSONField) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append(JSONField(nil), v...)
	case string:
		*j = JSONField(v)
	default:
		return errors.New("unsupported type for JSONField")
	}
	return nil
}

// MarshalJSON implements json.Marshaler interface.
func (j JSONField) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (j *JSONField) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*j = nil
		return nil
	}
	*j = append(JSONField(nil), data...)
	return nil
}
