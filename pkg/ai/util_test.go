package ai

import "testing"

type sample struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func TestUnmarshalFlexible(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    sample
		wantErr bool
	}{
		{
			name:  "standard json",
			input: `{"name": "notes", "items": ["a", "b"]}`,
			want:  sample{Name: "notes", Items: []string{"a", "b"}},
		},
		{
			name:  "double encoded",
			input: `"{\"name\": \"notes\", \"items\": []}"`,
			want:  sample{Name: "notes", Items: []string{}},
		},
		{
			name:  "code fenced",
			input: "```json\n{\"name\": \"fenced\", \"items\": [\"x\"]}\n```",
			want:  sample{Name: "fenced", Items: []string{"x"}},
		},
		{
			name:  "malformed repaired",
			input: `{name: "loose", items: ["a",]}`,
			want:  sample{Name: "loose", Items: []string{"a"}},
		},
		{
			name:  "duplicate leading brace",
			input: `{{"name": "doubled", "items": []}`,
			want:  sample{Name: "doubled", Items: []string{}},
		},
		{
			name:    "hopeless input",
			input:   `not even close ]]]`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got sample
			err := UnmarshalFlexible(tt.input, &got)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("UnmarshalFlexible: %v", err)
			}
			if got.Name != tt.want.Name {
				t.Errorf("Name = %q, want %q", got.Name, tt.want.Name)
			}
			if len(got.Items) != len(tt.want.Items) {
				t.Fatalf("Items = %v, want %v", got.Items, tt.want.Items)
			}
			for i := range got.Items {
				if got.Items[i] != tt.want.Items[i] {
					t.Errorf("Items[%d] = %q, want %q", i, got.Items[i], tt.want.Items[i])
				}
			}
		})
	}
}
