package model

// SchemaInfo is the root of the introspected schema graph
type SchemaInfo struct {
	Name      string           `json:"name"`
	Tables    []TableInfo      `json:"tables"`
	Views     []TableInfo      `json:"views,omitempty"`
	Routines  []RoutineInfo    `json:"routines,omitempty"`
	Sequences []SequenceInfo   `json:"sequences,omitempty"`
	Types     []CustomTypeInfo `json:"types,omitempty"`
}

// TableInfo describes one table or view within a schema
type TableInfo struct {
	Schema  string       `json:"schema"`
	Name    string       `json:"name"`
	Type    string       `json:"type"` // TABLE or VIEW
	Comment string       `json:"comment,omitempty"`
	Columns []ColumnInfo `json:"columns"`
}

// ColumnInfo describes one column, with FK and enum lookups already resolved
type ColumnInfo struct {
	Name            string          `json:"name"`
	DataType        string          `json:"dataType"`
	Nullable        bool            `json:"nullable"`
	IsPrimaryKey    bool            `json:"isPrimaryKey"`
	Default         string          `json:"default,omitempty"`
	OrdinalPosition int             `json:"ordinalPosition"`
	Comment         string          `json:"comment,omitempty"`
	ForeignKey      *ForeignKeyInfo `json:"foreignKey,omitempty"`
	EnumValues      []string        `json:"enumValues,omitempty"`
}

// ForeignKeyInfo describes the referenced side of a foreign key column
type ForeignKeyInfo struct {
	ConstraintName   string `json:"constraintName"`
	ReferencedSchema string `json:"referencedSchema"`
	ReferencedTable  string `json:"referencedTable"`
	ReferencedColumn string `json:"referencedColumn"`
}

// RoutineInfo describes a function or procedure scoped to a schema
type RoutineInfo struct {
	Schema       string         `json:"schema"`
	Name         string         `json:"name"`
	SpecificName string         `json:"specificName"` // disambiguates overloads
	Kind         string         `json:"kind"`         // FUNCTION or PROCEDURE
	ReturnType   string         `json:"returnType,omitempty"`
	Language     string         `json:"language,omitempty"`
	Parameters   []RoutineParam `json:"parameters,omitempty"`
}

// RoutineParam is one parameter of a routine, in ordinal order
type RoutineParam struct {
	Name     string `json:"name"`
	DataType string `json:"dataType"`
	Mode     string `json:"mode"` // IN, OUT, INOUT
	Ordinal  int    `json:"ordinal"`
}

// SequenceInfo describes a sequence
type SequenceInfo struct {
	Schema    string `json:"schema"`
	Name      string `json:"name"`
	DataType  string `json:"dataType,omitempty"`
	StartsAt  int64  `json:"startsAt"`
	MinValue  int64  `json:"minValue"`
	MaxValue  int64  `json:"maxValue"`
	Increment int64  `json:"increment"`
	Cycles    bool   `json:"cycles"`
}

// CustomTypeInfo describes a user-defined enum or domain type
type CustomTypeInfo struct {
	Schema     string   `json:"schema"`
	Name       string   `json:"name"`
	Kind       string   `json:"kind"` // ENUM or DOMAIN
	EnumValues []string `json:"enumValues,omitempty"`
	BaseType   string   `json:"baseType,omitempty"` // for domains
}
