package utils

import (
	"strings"

	"sqldeck/internal/model"
)

// MapDataType maps a driver-reported native type name to the normalized
// type vocabulary the UI renders with
func MapDataType(dialect model.Dialect, nativeType string) model.StandardizedType {
	normalized := normalizeColumnType(nativeType)

	switch dialect.Family() {
	case model.DialectMySQL:
		return mapMySQLType(normalized)
	case model.DialectPostgres:
		return mapPostgresType(normalized)
	case model.DialectSQLServer:
		return mapSQLServerType(normalized)
	default:
		return model.TypeUnknown
	}
}

func mapMySQLType(columnType string) model.StandardizedType {
	switch {
	case columnType == "BIGINT":
		return model.TypeBigInt
	case strings.HasPrefix(columnType, "TINYINT"),
		strings.HasPrefix(columnType, "SMALLINT"),
		strings.HasPrefix(columnType, "MEDIUMINT"),
		strings.HasPrefix(columnType, "INT"),
		columnType == "YEAR":
		return model.TypeInteger
	case columnType == "FLOAT":
		return model.TypeFloat
	case columnType == "DOUBLE":
		return model.TypeDouble
	case strings.HasPrefix(columnType, "DECIMAL"), strings.HasPrefix(columnType, "NUMERIC"):
		return model.TypeDecimal
	case columnType == "DATE":
		return model.TypeDate
	case columnType == "TIME":
		return model.TypeTime
	case columnType == "DATETIME":
		return model.TypeDateTime
	case columnType == "TIMESTAMP":
		return model.TypeTimestamp
	case strings.HasPrefix(columnType, "CHAR"), strings.HasPrefix(columnType, "VARCHAR"),
		columnType == "ENUM", columnType == "SET":
		return model.TypeString
	case strings.HasSuffix(columnType, "TEXT"):
		return model.TypeText
	case strings.HasSuffix(columnType, "BLOB"),
		strings.HasPrefix(columnType, "BINARY"),
		strings.HasPrefix(columnType, "VARBINARY"),
		strings.HasPrefix(columnType, "BIT"):
		return model.TypeBinary
	case columnType == "JSON":
		return model.TypeJSON
	case columnType == "BOOLEAN", columnType == "BOOL":
		return model.TypeBoolean
	default:
		return model.TypeUnknown
	}
}

func mapPostgresType(columnType string) model.StandardizedType {
	switch {
	case columnType == "SMALLINT", columnType == "INTEGER",
		columnType == "INT2", columnType == "INT4", columnType == "SERIAL":
		return model.TypeInteger
	case columnType == "BIGINT", columnType == "INT8", columnType == "BIGSERIAL":
		return model.TypeBigInt
	case columnType == "REAL", columnType == "FLOAT4":
		return model.TypeFloat
	case columnType == "DOUBLE PRECISION", columnType == "FLOAT8":
		return model.TypeDouble
	case strings.HasPrefix(columnType, "NUMERIC"), strings.HasPrefix(columnType, "DECIMAL"):
		return model.TypeDecimal
	case columnType == "BOOLEAN", columnType == "BOOL":
		return model.TypeBoolean
	case columnType == "DATE":
		return model.TypeDate
	case strings.HasPrefix(columnType, "TIMESTAMP"):
		return model.TypeTimestamp
	case strings.HasPrefix(columnType, "TIME"):
		return model.TypeTime
	case strings.HasPrefix(columnType, "CHAR"), strings.HasPrefix(columnType, "VARCHAR"),
		columnType == "CHARACTER VARYING", columnType == "CHARACTER", columnType == "BPCHAR",
		columnType == "NAME":
		return model.TypeString
	case columnType == "TEXT":
		return model.TypeText
	case columnType == "BYTEA":
		return model.TypeBinary
	case columnType == "JSON", columnType == "JSONB":
		return model.TypeJSON
	case columnType == "UUID":
		return model.TypeUUID
	case strings.HasPrefix(columnType, "_"), strings.HasSuffix(columnType, "[]"),
		columnType == "ARRAY":
		// pg drivers report array types with a leading underscore
		return model.TypeArray
	default:
		return model.TypeUnknown
	}
}

func mapSQLServerType(columnType string) model.StandardizedType {
	switch {
	case columnType == "TINYINT", columnType == "SMALLINT", columnType == "INT":
		return model.TypeInteger
	case columnType == "BIGINT":
		return model.TypeBigInt
	case columnType == "REAL":
		return model.TypeFloat
	case columnType == "FLOAT":
		return model.TypeDouble
	case strings.HasPrefix(columnType, "DECIMAL"), strings.HasPrefix(columnType, "NUMERIC"),
		columnType == "MONEY", columnType == "SMALLMONEY":
		return model.TypeDecimal
	case columnType == "BIT":
		return model.TypeBoolean
	case columnType == "DATE":
		return model.TypeDate
	case columnType == "TIME":
		return model.TypeTime
	case columnType == "DATETIME", columnType == "DATETIME2", columnType == "SMALLDATETIME":
		return model.TypeDateTime
	case columnType == "DATETIMEOFFSET":
		return model.TypeTimestamp
	case strings.HasPrefix(columnType, "NCHAR"), strings.HasPrefix(columnType, "NVARCHAR"),
		strings.HasPrefix(columnType, "CHAR"), strings.HasPrefix(columnType, "VARCHAR"):
		return model.TypeString
	case columnType == "TEXT", columnType == "NTEXT", columnType == "XML":
		return model.TypeText
	case strings.HasPrefix(columnType, "BINARY"), strings.HasPrefix(columnType, "VARBINARY"),
		columnType == "IMAGE":
		return model.TypeBinary
	case columnType == "UNIQUEIDENTIFIER":
		return model.TypeUUID
	default:
		return model.TypeUnknown
	}
}

// normalizeColumnType uppercases the name and strips size qualifiers such
// as varchar(255)
func normalizeColumnType(columnType string) string {
	normalized := strings.ToUpper(strings.TrimSpace(columnType))
	if start := strings.Index(normalized, "("); start != -1 {
		if end := strings.Index(normalized[start:], ")"); end != -1 {
			normalized = normalized[:start] + normalized[start+end+1:]
		}
	}
	return strings.TrimSpace(normalized)
}
