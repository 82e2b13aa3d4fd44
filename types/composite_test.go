package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/The-One-And-Only-H/psycopg/adapt"
	"github.com/The-One-And-Only-H/psycopg/oids"
	"github.com/The-One-And-Only-H/psycopg/pq"
)

func inventoryItemInfo() CompositeInfo {
	return CompositeInfo{
		Name:     "inventory_item",
		Oid:      oids.Oid(16999),
		ArrayOid: oids.Oid(17000),
		Fields: []FieldInfo{
			{Name: "name", Oid: oids.Text},
			{Name: "supplier_id", Oid: oids.Int4},
			{Name: "price", Oid: oids.Numeric},
		},
	}
}

func TestRegisterCompositeText(t *testing.T) {
	conn := newFakeConn("UTF8")
	info := inventoryItemInfo()
	require.NoError(t, RegisterComposite(info, conn, nil))

	v := loadValue(t, conn, info.Oid, pq.TextFormat, []byte(`("fuzzy dice",42,1.99)`))
	m, ok := v.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "fuzzy dice", m["name"])
	assert.Equal(t, int32(42), m["supplier_id"])
	assert.True(t, m["price"].(decimal.Decimal).Equal(decimal.RequireFromString("1.99")))
}

func TestRegisterCompositeNullField(t *testing.T) {
	conn := newFakeConn("UTF8")
	info := inventoryItemInfo()
	require.NoError(t, RegisterComposite(info, conn, nil))

	v := loadValue(t, conn, info.Oid, pq.TextFormat, []byte(`(thing,,)`))
	m := v.(map[string]interface{})
	assert.Equal(t, "thing", m["name"])
	assert.Nil(t, m["supplier_id"])
	assert.Nil(t, m["price"])
}

func TestRegisterCompositeBinary(t *testing.T) {
	conn := newFakeConn("UTF8")
	info := inventoryItemInfo()
	require.NoError(t, RegisterComposite(info, conn, nil))

	wire := binaryRecord(
		binaryField(oids.Text, []byte("fuzzy dice")),
		binaryField(oids.Int4, []byte{0, 0, 0, 42}),
		binaryField(oids.Numeric, nil),
	)
	v := loadValue(t, conn, info.Oid, pq.BinaryFormat, wire)
	m, ok := v.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "fuzzy dice", m["name"])
	assert.Equal(t, int32(42), m["supplier_id"])
	assert.Nil(t, m["price"])
}

type inventoryItem struct {
	Name       string
	SupplierID int32
	Price      decimal.Decimal
}

func TestRegisterCompositeFactory(t *testing.T) {
	conn := newFakeConn("UTF8")
	info := inventoryItemInfo()
	factory := func(values []interface{}) (interface{}, error) {
		return inventoryItem{
			Name:       values[0].(string),
			SupplierID: values[1].(int32),
			Price:      values[2].(decimal.Decimal),
		}, nil
	}
	require.NoError(t, RegisterComposite(info, conn, factory))

	v := loadValue(t, conn, info.Oid, pq.TextFormat, []byte(`(widget,7,0.50)`))
	item, ok := v.(inventoryItem)
	require.True(t, ok)
	assert.Equal(t, "widget", item.Name)
	assert.Equal(t, int32(7), item.SupplierID)
	assert.True(t, item.Price.Equal(decimal.RequireFromString("0.5")))
}

func TestRegisterCompositeScoped(t *testing.T) {
	conn := newFakeConn("UTF8")
	info := inventoryItemInfo()
	require.NoError(t, RegisterComposite(info, conn, nil))

	// Other contexts do not see the registration and fall back to text.
	v := loadValue(t, nil, info.Oid, pq.TextFormat, []byte(`(a,b,c)`))
	assert.Equal(t, "(a,b,c)", v)
}

func TestRegisterCompositeFieldCountMismatch(t *testing.T) {
	conn := newFakeConn("UTF8")
	info := inventoryItemInfo()
	require.NoError(t, RegisterComposite(info, conn, nil))

	_, err := loadValueErr(conn, info.Oid, pq.TextFormat, []byte(`(a,1)`))
	require.Error(t, err)
	_, err = loadValueErr(conn, info.Oid, pq.TextFormat, []byte(`(a,1,2.0,extra)`))
	require.Error(t, err)
}

func TestRegisterCompositeInvalid(t *testing.T) {
	err := RegisterComposite(CompositeInfo{Name: "nameless"}, nil, nil)
	require.Error(t, err)
	var regErr *adapt.InvalidRegistrationError
	require.ErrorAs(t, err, &regErr)
}
