package es

import (
	"strings"
	"testing"
)

func TestAuthorDetailScript(t *testing.T) {
	name := "X"
	photo := "https://cdn/p.png"

	tests := []struct {
		name       string
		nameArg    *string
		photoArg   *string
		wantFields []string
		wantParams int
	}{
		{"nothing", nil, nil, nil, 0},
		{"name only", &name, nil, []string{"author_name"}, 1},
		{"both", &name, &photo, []string{"author_name", "author_photo"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, params := AuthorDetailScript(tt.nameArg, tt.photoArg)
			if len(params) != tt.wantParams {
				t.Errorf("params = %v, want %d entries", params, tt.wantParams)
			}
			for _, f := range tt.wantFields {
				if !strings.Contains(source, "ctx._source."+f) {
					t.Errorf("script %q does not set %s", source, f)
				}
			}
			if tt.photoArg == nil && strings.Contains(source, "author_photo") {
				t.Errorf("script %q must not touch author_photo", source)
			}
		})
	}
	if _, params := AuthorDetailScript(&name, nil); string(params["author_name"]) != `"X"` {
		t.Errorf("author_name param = %s, want \"X\"", params["author_name"])
	}
}
