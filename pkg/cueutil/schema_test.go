// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"strings"
	"testing"
)

var testSchema = []byte(`
#Doc: {
	name?: string
	tags?: [...string]
	mode?: "fast" | "slow"
}
`)

func TestDecodeMap(t *testing.T) {
	t.Parallel()

	got, err := DecodeMap(testSchema, "#Doc", []byte(`name: "x"
tags: ["a", "b"]
`), WithFilename("doc.cue"))
	if err != nil {
		t.Fatalf("DecodeMap() error = %v", err)
	}
	if got["name"] != "x" {
		t.Errorf("name = %v, want x", got["name"])
	}
	if tags, ok := got["tags"].([]any); !ok || len(tags) != 2 {
		t.Errorf("tags = %#v", got["tags"])
	}
	if _, ok := got["mode"]; ok {
		t.Error("unset optional field decoded")
	}
}

func TestDecodeMapErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		opts []Option
		want string
	}{
		{"syntax", `name: "x`, nil, "doc.cue"},
		{"disjunction", `mode: "medium"`, nil, "mode"},
		{"closed definition", `other: 1`, nil, "other"},
		{"list element type", `tags: [1]`, nil, "tags[0]"},
		{"size", `name: "xxxxxxxx"`, []Option{WithMaxFileSize(4)}, "exceeds maximum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := append([]Option{WithFilename("doc.cue")}, tt.opts...)
			_, err := DecodeMap(testSchema, "#Doc", []byte(tt.data), opts...)
			if err == nil {
				t.Fatal("DecodeMap() error = nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("DecodeMap() error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}
