package ir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "simple column",
			src:  "email VARCHAR(255) NOT NULL",
			want: []string{"email", "VARCHAR(255)", "NOT", "NULL"},
		},
		{
			name: "parenthesised type keeps comma",
			src:  "price NUMERIC(10,2)",
			want: []string{"price", "NUMERIC(10,2)"},
		},
		{
			name: "default function call",
			src:  "created_at TIMESTAMPTZ DEFAULT NOW()",
			want: []string{"created_at", "TIMESTAMPTZ", "DEFAULT", "NOW()"},
		},
		{
			name: "string literal with comma and spaces",
			src:  "label TEXT DEFAULT 'a, b'",
			want: []string{"label", "TEXT", "DEFAULT", "'a, b'"},
		},
		{
			name: "doubled quote escape",
			src:  "note TEXT DEFAULT 'it''s'",
			want: []string{"note", "TEXT", "DEFAULT", "'it''s'"},
		},
		{
			name: "nested parens stay together",
			src:  "CHECK (price > (0 + 1))",
			want: []string{"CHECK", "(price > (0 + 1))"},
		},
		{
			name: "unbalanced input still flushes",
			src:  "broken (unclosed",
			want: []string{"broken", "(unclosed"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenize(tt.src)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("tokenize(%q) mismatch (-want +got):\n%s", tt.src, diff)
			}
		})
	}
}

func TestSplitTableBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "columns and constraint",
			body: "id SERIAL PRIMARY KEY, price NUMERIC(10,2), CHECK (price > 0)",
			want: []string{"id SERIAL PRIMARY KEY", "price NUMERIC(10,2)", "CHECK (price > 0)"},
		},
		{
			name: "comma inside string literal",
			body: "status TEXT DEFAULT 'a,b', n INT",
			want: []string{"status TEXT DEFAULT 'a,b'", "n INT"},
		},
		{
			name: "composite primary key",
			body: "ts TIMESTAMPTZ, who TEXT, PRIMARY KEY (ts, who)",
			want: []string{"ts TIMESTAMPTZ", "who TEXT", "PRIMARY KEY (ts, who)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitTableBody(tt.body)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("splitTableBody mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStripComments(t *testing.T) {
	src := "CREATE TABLE t ( -- trailing\n  a TEXT, /* block */ b INT\n)"
	got := stripComments(src)
	want := "CREATE TABLE t ( \n  a TEXT,  b INT\n)"
	if got != want {
		t.Errorf("stripComments = %q, want %q", got, want)
	}
}

func TestStripCommentsKeepsStringContents(t *testing.T) {
	src := "a TEXT DEFAULT '-- not a comment'"
	if got := stripComments(src); got != src {
		t.Errorf("stripComments mangled string literal: %q", got)
	}
}

func TestSplitStatements(t *testing.T) {
	script := "CREATE TABLE a (x INT);\nCREATE TABLE b (y TEXT DEFAULT ';');\n"
	got := splitStatements(script)
	want := []string{
		"CREATE TABLE a (x INT)",
		"CREATE TABLE b (y TEXT DEFAULT ';')",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("splitStatements mismatch (-want +got):\n%s", diff)
	}
}
