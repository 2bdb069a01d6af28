// Package property projects the public API's typed property-value union
// into plain JSON scalars and objects, and projects property schema
// definitions for filter-building.
package property

// Value represents one page property value as returned by the public
// API. The union is keyed by Type; exactly one of the typed fields is
// populated for a given value.
type Value struct {
	ID             string        `json:"id,omitempty"`
	Type           string        `json:"type"`
	Title          []RichText    `json:"title,omitempty"`
	RichText       []RichText    `json:"rich_text,omitempty"`
	Number         *float64      `json:"number,omitempty"`
	Select         *SelectValue  `json:"select,omitempty"`
	Status         *SelectValue  `json:"status,omitempty"`
	MultiSelect    []SelectValue `json:"multi_select,omitempty"`
	Date           *DateValue    `json:"date,omitempty"`
	People         []UserValue   `json:"people,omitempty"`
	Files          []FileValue   `json:"files,omitempty"`
	Checkbox       *bool         `json:"checkbox,omitempty"`
	URL            *string       `json:"url,omitempty"`
	Email          *string       `json:"email,omitempty"`
	PhoneNumber    *string       `json:"phone_number,omitempty"`
	Formula        *Formula      `json:"formula,omitempty"`
	Relation       []Relation    `json:"relation,omitempty"`
	Rollup         *Rollup       `json:"rollup,omitempty"`
	CreatedTime    *string       `json:"created_time,omitempty"`
	LastEditedTime *string       `json:"last_edited_time,omitempty"`
	CreatedBy      *UserValue    `json:"created_by,omitempty"`
	LastEditedBy   *UserValue    `json:"last_edited_by,omitempty"`
	UniqueID       *UniqueID     `json:"unique_id,omitempty"`
	Verification   *Verification `json:"verification,omitempty"`
}

// RichText is one span of rich text content.
type RichText struct {
	Type      string       `json:"type,omitempty"`
	Text      *TextContent `json:"text,omitempty"`
	PlainText string       `json:"plain_text"`
}

// TextContent is the writable portion of a rich text span.
type TextContent struct {
	Content string `json:"content"`
}

// SelectValue is a select, multi_select, or status choice.
type SelectValue struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// DateValue is a date or date range.
type DateValue struct {
	Start string  `json:"start"`
	End   *string `json:"end"`
}

// UserValue is a user reference inside a property value.
type UserValue struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// FileValue is one attached file; File holds the hosted url, External
// the linked one.
type FileValue struct {
	Name     string   `json:"name,omitempty"`
	File     *FileURL `json:"file,omitempty"`
	External *FileURL `json:"external,omitempty"`
}

// FileURL wraps a url.
type FileURL struct {
	URL string `json:"url"`
}

// Formula is a computed property result, keyed by Type.
type Formula struct {
	Type    string     `json:"type"`
	String  *string    `json:"string,omitempty"`
	Number  *float64   `json:"number,omitempty"`
	Boolean *bool      `json:"boolean,omitempty"`
	Date    *DateValue `json:"date,omitempty"`
}

// Relation is a reference to a page in a related database.
type Relation struct {
	ID string `json:"id"`
}

// Rollup aggregates a property across a relation. When Type is "array"
// each element of Array is itself a property value.
type Rollup struct {
	Type   string     `json:"type"`
	Number *float64   `json:"number,omitempty"`
	Date   *DateValue `json:"date,omitempty"`
	Array  []Value    `json:"array,omitempty"`
}

// UniqueID is an auto-incremented page identifier.
type UniqueID struct {
	Prefix *string `json:"prefix"`
	Number int     `json:"number"`
}

// Verification records a page's verification state.
type Verification struct {
	State string `json:"state"`
}
