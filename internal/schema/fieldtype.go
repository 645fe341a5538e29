package schema

import "strings"

// FieldType is the semantic type of a mapped field
type FieldType int

const (
	// Auto omits the type so the engine infers it
	Auto FieldType = iota
	Text
	Keyword
	Integer
	Long
	Date
	Float
	Double
	Boolean
	Object
	Nested
	IP
	Attachment
)

var fieldTypeNames = map[FieldType]string{
	Auto:       "auto",
	Text:       "text",
	Keyword:    "keyword",
	Integer:    "integer",
	Long:       "long",
	Date:       "date",
	Float:      "float",
	Double:     "double",
	Boolean:    "boolean",
	Object:     "object",
	Nested:     "nested",
	IP:         "ip",
	Attachment: "attachment",
}

// String returns the engine name of the type
func (t FieldType) String() string {
	if name, ok := fieldTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// IsContainer reports whether fields of this type hold a sub-record
func (t FieldType) IsContainer() bool {
	return t == Nested || t == Object
}

// ParseFieldType resolves a type name case-insensitively
func ParseFieldType(name string) (FieldType, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range fieldTypeNames {
		if n == name {
			return t, true
		}
	}
	return Auto, false
}

// DateFormat selects the format parameter of date fields
type DateFormat int

const (
	FormatNone DateFormat = iota
	FormatCustom
	FormatBasicDate
	FormatBasicDateTime
	FormatBasicDateTimeNoMillis
	FormatBasicTime
	FormatBasicTimeNoMillis
	FormatDate
	FormatDateHour
	FormatDateHourMinute
	FormatDateHourMinuteSecond
	FormatDateHourMinuteSecondMillis
	FormatDateOptionalTime
	FormatDateTime
	FormatDateTimeNoMillis
	FormatEpochMillis
	FormatEpochSecond
	FormatStrictDateOptionalTime
	FormatTime
	FormatTimeNoMillis
	FormatWeekDate
	FormatYear
	FormatYearMonth
	FormatYearMonthDay
)

var dateFormatNames = map[DateFormat]string{
	FormatNone:                       "none",
	FormatCustom:                     "custom",
	FormatBasicDate:                  "basic_date",
	FormatBasicDateTime:              "basic_date_time",
	FormatBasicDateTimeNoMillis:      "basic_date_time_no_millis",
	FormatBasicTime:                  "basic_time",
	FormatBasicTimeNoMillis:          "basic_time_no_millis",
	FormatDate:                       "date",
	FormatDateHour:                   "date_hour",
	FormatDateHourMinute:             "date_hour_minute",
	FormatDateHourMinuteSecond:       "date_hour_minute_second",
	FormatDateHourMinuteSecondMillis: "date_hour_minute_second_millis",
	FormatDateOptionalTime:           "date_optional_time",
	FormatDateTime:                   "date_time",
	FormatDateTimeNoMillis:           "date_time_no_millis",
	FormatEpochMillis:                "epoch_millis",
	FormatEpochSecond:                "epoch_second",
	FormatStrictDateOptionalTime:     "strict_date_optional_time",
	FormatTime:                       "time",
	FormatTimeNoMillis:               "time_no_millis",
	FormatWeekDate:                   "week_date",
	FormatYear:                       "year",
	FormatYearMonth:                  "year_month",
	FormatYearMonthDay:               "year_month_day",
}

// String returns the canonical engine name of a named format
func (f DateFormat) String() string {
	if name, ok := dateFormatNames[f]; ok {
		return name
	}
	return "unknown"
}

// ParseDateFormat resolves a format name; anything unknown is treated as a custom pattern by callers
func ParseDateFormat(name string) (DateFormat, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f, n := range dateFormatNames {
		if n == name {
			return f, true
		}
	}
	return FormatNone, false
}
