// Package psycopg adapts values between Go and the PostgreSQL wire protocol.
/*
psycopg is not a driver. It is the value adaptation layer a driver sits on: it
turns Go values into the text or binary wire representation PostgreSQL
expects, and wire data back into Go values, honoring the client encoding and
server version of the session it serves.

Adaptation Scopes

Dumpers and loaders are looked up through three nested scopes. The process
wide registry holds the built-in handlers that the types package installs.
A Connection shadows it with per-connection registrations, and a Cursor
shadows the Connection in turn. Registering in a narrow scope never disturbs
the wider ones, so one cursor can read a column as a different Go type
without affecting the rest of the program.

	conn, err := psycopg.NewConnection(psycopg.Config{})
	if err != nil {
		return err
	}
	cur := conn.Cursor()
	cur.BindResult(res)
	values, err := cur.Row(0)

Dumping Values

A Transformer resolves the Dumper for a Go value by walking the scopes,
matching the concrete type first, then registered interfaces, then the
type's underlying type and name. Dumpers append the wire form to a caller
buffer and report the parameter OID the server should see.

	tx := psycopg.NewTransformer(conn)
	d, err := tx.GetDumper(int32(7), psycopg.BinaryFormat)

Loading Values

Loaders go the other way: the Transformer picks one per result column from
the column's type OID and format, and LoadRow materializes a row of Go
values. Unknown column types fall back to a raw loader that hands back the
wire bytes untouched.

Custom Types

Composite and extension types do not have stable OIDs across databases, so
they are registered per connection once the OIDs are known. The types
package provides RegisterComposite for composites; the ext packages cover
cockroachdb/apd numerics and PostGIS geometries.
*/
package psycopg
