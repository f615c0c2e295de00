// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

const testSchema = `
#Target: {
	name:     string & !=""
	retries:  *0 | int & >=0
	tags:     [...string]
	enabled?: bool
}
`

type target struct {
	Name    string   `json:"name"`
	Retries int      `json:"retries"`
	Tags    []string `json:"tags"`
	Enabled *bool    `json:"enabled,omitempty"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		want    target
		wantErr string
	}{
		{
			name: "cue input with defaults",
			data: `name: "build", tags: ["ci"]`,
			want: target{Name: "build", Tags: []string{"ci"}},
		},
		{
			name: "json input",
			data: `{"name": "deploy", "retries": 2, "tags": [], "enabled": true}`,
			want: target{Name: "deploy", Retries: 2, Tags: []string{}},
		},
		{
			name:    "unknown field rejected",
			data:    `name: "x", tags: [], colour: "red"`,
			wantErr: "colour",
		},
		{
			name:    "constraint violation carries path",
			data:    `name: "x", tags: [1]`,
			wantErr: "tags[0]",
		},
		{
			name:    "syntax error",
			data:    `name: `,
			wantErr: "test.cue",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := ParseAndDecode[target]([]byte(testSchema), []byte(tt.data), "#Target", WithFilename("test.cue"))
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAndDecode() error = %v", err)
			}
			got := *res.Value
			if got.Name != tt.want.Name || got.Retries != tt.want.Retries || len(got.Tags) != len(tt.want.Tags) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseAndDecode_MaxSize(t *testing.T) {
	t.Parallel()

	_, err := ParseAndDecode[target]([]byte(testSchema), []byte(`name: "too long"`), "#Target", WithMaxFileSize(4))
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("error = %v, want size error", err)
	}
}

func TestParseAndDecode_MissingDefinition(t *testing.T) {
	t.Parallel()

	_, err := ParseAndDecode[target]([]byte(testSchema), []byte(`name: "x"`), "#Nope")
	if err == nil || !strings.Contains(err.Error(), "#Nope") {
		t.Errorf("error = %v, want missing definition error", err)
	}
}

func TestDecodeValue(t *testing.T) {
	t.Parallel()

	res, err := DecodeValue[target]([]byte(testSchema), "#Target", map[string]any{
		"name":    "lint",
		"retries": int64(3),
		"tags":    []any{"a", "b"},
	})
	if err != nil {
		t.Fatalf("DecodeValue() error = %v", err)
	}
	if res.Value.Name != "lint" || res.Value.Retries != 3 || len(res.Value.Tags) != 2 {
		t.Errorf("got %+v", res.Value)
	}

	_, err = DecodeValue[target]([]byte(testSchema), "#Target", map[string]any{
		"name":    "",
		"tags":    []any{},
		"retries": int64(-1),
	}, WithFilename("task tag"))
	if err == nil || !strings.HasPrefix(err.Error(), "task tag:") {
		t.Errorf("error = %v, want prefixed validation error", err)
	}
}

func TestFormatError(t *testing.T) {
	t.Parallel()

	if FormatError(nil, "x") != nil {
		t.Error("FormatError(nil) should be nil")
	}
	err := FormatError(errors.New("plain"), "input.cue")
	if err == nil || err.Error() != "input.cue: plain" {
		t.Errorf("FormatError() = %v", err)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"name"}, "name"},
		{[]string{"commands", "0", "definition", "options"}, "commands[0].definition.options"},
		{[]string{"items", "0", "values", "1"}, "items[0].values[1]"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.want {
			t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
