package psycopg_test

import (
	"fmt"
	"reflect"
	"strconv"

	psycopg "github.com/The-One-And-Only-H/psycopg"
	"github.com/The-One-And-Only-H/psycopg/oids"
)

// Temperature is sent to the server as float8 degrees Celsius.
type Temperature float64

type temperatureDumper struct{}

func (temperatureDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	return strconv.AppendFloat(buf, float64(v.(Temperature)), 'f', -1, 64), nil
}

func (temperatureDumper) Oid() oids.Oid          { return oids.Float8 }
func (temperatureDumper) Format() psycopg.Format { return psycopg.TextFormat }

func Example_customType() {
	conn, err := psycopg.NewConnection(psycopg.Config{})
	if err != nil {
		fmt.Println(err)
		return
	}

	err = conn.RegisterDumper(Temperature(0), psycopg.TextFormat,
		func(typ reflect.Type, ctx psycopg.AdaptContext) psycopg.Dumper {
			return temperatureDumper{}
		})
	if err != nil {
		fmt.Println(err)
		return
	}

	tx := psycopg.NewTransformer(conn)
	d, err := tx.GetDumper(Temperature(21.5), psycopg.TextFormat)
	if err != nil {
		fmt.Println(err)
		return
	}

	wire, err := d.Dump(Temperature(21.5), nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("%s as oid %d\n", wire, d.Oid())

	literal, err := psycopg.Quote(d, conn.Escaping(), Temperature(21.5))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("%s\n", literal)
	// Output:
	// 21.5 as oid 701
	// '21.5'
}
