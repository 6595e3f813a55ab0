package pgdialect_test

import (
	"fmt"

	"github.com/pgdialect/pgdialect"
)

func ExampleParseDDL() {
	table, err := pgdialect.ParseDDL(`CREATE TABLE users (
		id UUID PRIMARY KEY,
		email VARCHAR(255) NOT NULL
	)`)
	if err != nil {
		panic(err)
	}
	fmt.Println(table.Name, len(table.Columns))
	// Output: users 2
}

func ExampleValidateTable() {
	table, err := pgdialect.ParseDDL(`CREATE TABLE t (data JSONB)`)
	if err != nil {
		panic(err)
	}
	res, err := pgdialect.ValidateTable(table, pgdialect.DSQL, pgdialect.ValidateOptions{})
	if err != nil {
		panic(err)
	}
	for _, d := range res.Diagnostics {
		fmt.Println(d.Format())
	}
	// Output:
	// [ERROR] DSQL-TYPE-002: JSON and JSONB columns are not supported
	//   Location: t.data
	//   Alternative: store documents as TEXT and parse in the application
}

func ExampleRewriteForDSQL() {
	res := pgdialect.RewriteForDSQL(`CREATE TABLE t (id SERIAL PRIMARY KEY)`)
	fmt.Println(res.SQL)
	fmt.Println(res.Modified)
	// Output:
	// CREATE TABLE t (id UUID DEFAULT gen_random_uuid() PRIMARY KEY)
	// true
}

func ExampleEmitTableCode() {
	table, err := pgdialect.ParseDDL(`CREATE TABLE posts (id UUID PRIMARY KEY, body TEXT NOT NULL)`)
	if err != nil {
		panic(err)
	}
	res, err := pgdialect.EmitTableCode(table, pgdialect.EmitOptions{})
	if err != nil {
		panic(err)
	}
	fmt.Print(res.Code)
	// Output:
	// export const Posts = defineTable('posts', {
	//   id: uuid().primaryKey(),
	//   body: text().notNull(),
	// });
}
