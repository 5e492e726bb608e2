// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package attrs

import (
	"embed"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/staranto/coursectl/internal/catalog"
)

//go:embed testdata/*.yaml
var testDataFS embed.FS

type setCase struct {
	Name      string `yaml:"name"`
	Initial   []Attr `yaml:"initial"`
	Value     string `yaml:"value"`
	WantLen   int    `yaml:"wantLen"`
	WantAttrs []Attr `yaml:"wantAttrs"`
	WantErr   bool   `yaml:"wantErr"`
}

type transformCase struct {
	Name          string `yaml:"name"`
	TransformSpec string `yaml:"transformSpec"`
	Input         any    `yaml:"input"`
	Want          any    `yaml:"want"`
	Description   string `yaml:"description"`
}

type globalTransformCase struct {
	Name      string   `yaml:"name"`
	Initial   []Attr   `yaml:"initial"`
	WantSpecs []string `yaml:"wantSpecs"`
}

type stringCase struct {
	Name     string `yaml:"name"`
	AttrList []Attr `yaml:"attrList"`
	Want     string `yaml:"want"`
}

// cases decodes the named testdata file into a slice of T.
func cases[T any](t *testing.T, filename string) []T {
	t.Helper()
	data, err := testDataFS.ReadFile("testdata/" + filename)
	require.NoError(t, err)

	var out []T
	require.NoError(t, yaml.Unmarshal(data, &out))
	require.NotEmpty(t, out, filename)
	return out
}

func TestAttrList_Set(t *testing.T) {
	for _, tt := range cases[setCase](t, "set_cases.yaml") {
		t.Run(tt.Name, func(t *testing.T) {
			a := AttrList(tt.Initial)
			err := a.Set(tt.Value)
			if tt.WantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, a, tt.WantLen)

			for i, want := range tt.WantAttrs {
				got := a[i]
				assert.Equal(t,
					[]any{want.Key, want.Raw, want.OutputKey, want.Include, want.TransformSpec},
					[]any{got.Key, got.Raw, got.OutputKey, got.Include, got.TransformSpec},
					"attr[%d]", i)
			}
		})
	}
}

func TestAttrList_SetGlobalTransformSpec(t *testing.T) {
	for _, tt := range cases[globalTransformCase](t, "global_transform_cases.yaml") {
		t.Run(tt.Name, func(t *testing.T) {
			a := AttrList(tt.Initial)
			a.SetGlobalTransformSpec()

			assert.Len(t, a, len(tt.WantSpecs))
			for i, wantSpec := range tt.WantSpecs {
				assert.Equal(t, wantSpec, a[i].TransformSpec, "attr[%d].TransformSpec", i)
			}
		})
	}
}

func TestAttr_Transform(t *testing.T) {
	for _, tt := range cases[transformCase](t, "transform_cases.yaml") {
		t.Run(tt.Name, func(t *testing.T) {
			attr := Attr{TransformSpec: tt.TransformSpec}
			assert.Equal(t, tt.Want, attr.Transform(tt.Input), tt.Description)
		})
	}
}

func TestAttrList_String(t *testing.T) {
	for _, tt := range cases[stringCase](t, "string_cases.yaml") {
		t.Run(tt.Name, func(t *testing.T) {
			a := AttrList(tt.AttrList)
			assert.Equal(t, tt.Want, a.String())
		})
	}
}

func TestAttr_Value(t *testing.T) {
	c := catalog.Course{
		"courseCode": "CSC 216",
		"subject":    "CSC",
		"name":       "Software Development Fundamentals",
		"credits":    json.Number("3"),
		"sections": []any{
			map[string]any{"crn": "10234", "seats": json.Number("40")},
		},
	}

	tests := []struct {
		spec string
		want any
	}{
		{"code", "CSC 216"},
		{"title", "Software Development Fundamentals"},
		{"description", nil},
		{"credits", json.Number("3")},
		{"missing", nil},
		{".sections.0.crn", "10234"},
		{".sections.0.seats", json.Number("40")},
		{".sections.1.crn", nil},
		{".sections[0].crn", "10234"},
		{".sections.seats", json.Number("40")},
		{".courseCode", "CSC 216"},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			var al AttrList
			require.NoError(t, al.Set(tt.spec))
			require.Len(t, al, 1)
			assert.Equal(t, tt.want, al[0].Value(c))
		})
	}
}

func TestAttrList_Row(t *testing.T) {
	var al AttrList
	require.NoError(t, al.Set("code,subject,title"))
	require.NoError(t, al.Set("*::U,!subject,title:Title:8"))
	al.SetGlobalTransformSpec()

	assert.Len(t, al.Included(), 2)

	row := al.Row(catalog.Course{"code": "csc 216", "subject": "CSC", "title": "Software Development"})
	assert.Equal(t, map[string]any{"code": "CSC 216", "Title": "SOFTWARE"}, row)
}
