package model

// Built-in record types covering the market data domain. Callers may define
// their own RecordType; nothing below is special-cased elsewhere.

// AssetPrice is one daily price observation for a traded symbol.
var AssetPrice = &RecordType{
	Name: "asset_price",
	Fields: []Field{
		{Name: "symbol", Type: FieldString},
		{Name: "date", Type: FieldDate},
		{Name: "close", Type: FieldFloat},
		{Name: "open", Type: FieldFloat, Optional: true},
		{Name: "high", Type: FieldFloat, Optional: true},
		{Name: "low", Type: FieldFloat, Optional: true},
		{Name: "close_adjusted", Type: FieldFloat, Optional: true},
		{Name: "volume", Type: FieldInt, Optional: true},
	},
}

// AssetInfo is the static profile of a traded symbol.
var AssetInfo = &RecordType{
	Name: "asset_info",
	Fields: []Field{
		{Name: "symbol", Type: FieldString},
		{Name: "currency", Type: FieldString},
		{Name: "name", Type: FieldString, Optional: true},
		{Name: "type", Type: FieldString, Optional: true},
		{Name: "exchange", Type: FieldString, Optional: true},
		{Name: "sector", Type: FieldString, Optional: true},
		{Name: "industry", Type: FieldString, Optional: true},
		{Name: "country", Type: FieldString, Optional: true},
		{Name: "employees", Type: FieldInt, Optional: true},
	},
}

// ExchangeRate is one daily closing rate for a currency pair. The pair is
// identified by the compound (base, target) columns.
var ExchangeRate = &RecordType{
	Name: "exchange_rate",
	Fields: []Field{
		{Name: "base", Type: FieldString},
		{Name: "target", Type: FieldString},
		{Name: "date", Type: FieldDate},
		{Name: "rate", Type: FieldFloat},
	},
}

var builtinTypes = map[string]*RecordType{
	AssetPrice.Name:   AssetPrice,
	AssetInfo.Name:    AssetInfo,
	ExchangeRate.Name: ExchangeRate,
}

// RecordTypeByName resolves a built-in record type from its name.
func RecordTypeByName(name string) (*RecordType, bool) {
	rt, ok := builtinTypes[name]
	return rt, ok
}
