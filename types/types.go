// Package types provides the built-in dumpers and loaders for PostgreSQL
// data types. Importing it registers them in the process-wide registries,
// from where connections, cursors and transformers can shadow any of them at
// a narrower scope.
package types

func must(err error) {
	if err != nil {
		panic(err)
	}
}
