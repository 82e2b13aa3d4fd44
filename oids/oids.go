// Package oids contains PostgreSQL object identifiers for built-in data
// types as found in the pg_type catalog.
package oids

// Oid is a PostgreSQL object identifier.
type Oid uint32

// InvalidOid is the zero OID. Loaders registered under InvalidOid act as the
// fallback for result columns whose type is not otherwise known.
const InvalidOid = Oid(0)

// OIDs of built-in types from pg_type.dat. Array types are listed in
// Builtins rather than as separate constants.
const (
	Bool        = Oid(16)
	Bytea       = Oid(17)
	QChar       = Oid(18)
	Name        = Oid(19)
	Int8        = Oid(20)
	Int2        = Oid(21)
	Int4        = Oid(23)
	Text        = Oid(25)
	OidOid      = Oid(26)
	TID         = Oid(27)
	XID         = Oid(28)
	CID         = Oid(29)
	JSON        = Oid(114)
	XML         = Oid(142)
	Point       = Oid(600)
	Lseg        = Oid(601)
	Path        = Oid(602)
	Box         = Oid(603)
	Polygon     = Oid(604)
	Line        = Oid(628)
	CIDR        = Oid(650)
	Float4      = Oid(700)
	Float8      = Oid(701)
	Unknown     = Oid(705)
	Circle      = Oid(718)
	Macaddr8    = Oid(774)
	Macaddr     = Oid(829)
	Inet        = Oid(869)
	BPChar      = Oid(1042)
	Varchar     = Oid(1043)
	Date        = Oid(1082)
	Time        = Oid(1083)
	Timestamp   = Oid(1114)
	Timestamptz = Oid(1184)
	Interval    = Oid(1186)
	Timetz      = Oid(1266)
	Bit         = Oid(1560)
	Varbit      = Oid(1562)
	Numeric     = Oid(1700)
	Record      = Oid(2249)
	UUID        = Oid(2950)
	JSONB       = Oid(3802)
	Int4Range   = Oid(3904)
	NumRange    = Oid(3906)
	TsRange     = Oid(3908)
	TstzRange   = Oid(3910)
	DateRange   = Oid(3912)
	Int8Range   = Oid(3926)
)

// TypeInfo describes a row of the pg_type catalog as far as adaptation is
// concerned.
type TypeInfo struct {
	Name     string
	Oid      Oid
	ArrayOid Oid
}

// Builtins indexes the built-in types by name.
var Builtins = map[string]TypeInfo{
	"bool":        {"bool", Bool, 1000},
	"bytea":       {"bytea", Bytea, 1001},
	"char":        {"char", QChar, 1002},
	"name":        {"name", Name, 1003},
	"int8":        {"int8", Int8, 1016},
	"int2":        {"int2", Int2, 1005},
	"int4":        {"int4", Int4, 1007},
	"text":        {"text", Text, 1009},
	"oid":         {"oid", OidOid, 1028},
	"tid":         {"tid", TID, 1010},
	"xid":         {"xid", XID, 1011},
	"cid":         {"cid", CID, 1012},
	"json":        {"json", JSON, 199},
	"xml":         {"xml", XML, 143},
	"point":       {"point", Point, 1017},
	"lseg":        {"lseg", Lseg, 1018},
	"path":        {"path", Path, 1019},
	"box":         {"box", Box, 1020},
	"polygon":     {"polygon", Polygon, 1027},
	"line":        {"line", Line, 629},
	"cidr":        {"cidr", CIDR, 651},
	"float4":      {"float4", Float4, 1021},
	"float8":      {"float8", Float8, 1022},
	"unknown":     {"unknown", Unknown, 0},
	"circle":      {"circle", Circle, 719},
	"macaddr8":    {"macaddr8", Macaddr8, 775},
	"macaddr":     {"macaddr", Macaddr, 1040},
	"inet":        {"inet", Inet, 1041},
	"bpchar":      {"bpchar", BPChar, 1014},
	"varchar":     {"varchar", Varchar, 1015},
	"date":        {"date", Date, 1182},
	"time":        {"time", Time, 1183},
	"timestamp":   {"timestamp", Timestamp, 1115},
	"timestamptz": {"timestamptz", Timestamptz, 1185},
	"interval":    {"interval", Interval, 1187},
	"timetz":      {"timetz", Timetz, 1270},
	"bit":         {"bit", Bit, 1561},
	"varbit":      {"varbit", Varbit, 1563},
	"numeric":     {"numeric", Numeric, 1231},
	"record":      {"record", Record, 2287},
	"uuid":        {"uuid", UUID, 2951},
	"jsonb":       {"jsonb", JSONB, 3807},
	"int4range":   {"int4range", Int4Range, 3905},
	"numrange":    {"numrange", NumRange, 3907},
	"tsrange":     {"tsrange", TsRange, 3909},
	"tstzrange":   {"tstzrange", TstzRange, 3911},
	"daterange":   {"daterange", DateRange, 3913},
	"int8range":   {"int8range", Int8Range, 3927},
}

var byOid map[Oid]TypeInfo

func init() {
	byOid = make(map[Oid]TypeInfo, len(Builtins))
	for _, ti := range Builtins {
		byOid[ti.Oid] = ti
	}
}

// ByOid looks up a built-in type by OID.
func ByOid(oid Oid) (TypeInfo, bool) {
	ti, ok := byOid[oid]
	return ti, ok
}
