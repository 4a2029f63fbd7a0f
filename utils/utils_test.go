package utils

import (
	"reflect"
	"testing"
)

func TestBatched(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		items []string
		size  int
		want  [][]string
	}{
		{
			name:  "even split",
			items: []string{"a", "b", "c", "d"},
			size:  2,
			want:  [][]string{{"a", "b"}, {"c", "d"}},
		},
		{
			name:  "uneven tail",
			items: []string{"a", "b", "c"},
			size:  2,
			want:  [][]string{{"a", "b"}, {"c"}},
		},
		{
			name:  "size one",
			items: []string{"a", "b"},
			size:  1,
			want:  [][]string{{"a"}, {"b"}},
		},
		{
			name:  "size larger than input",
			items: []string{"a"},
			size:  10,
			want:  [][]string{{"a"}},
		},
		{
			name:  "empty input",
			items: nil,
			size:  3,
			want:  nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := Batched(tt.items, tt.size)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Batched() got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFirstJSON(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare object",
			in:   `{"action":"done"}`,
			want: `{"action":"done"}`,
		},
		{
			name: "wrapped in prose",
			in:   "Here you go:\n{\"action\":\"visit\",\"link_to_visit\":\"https://x\"}\nHope that helps.",
			want: `{"action":"visit","link_to_visit":"https://x"}`,
		},
		{
			name: "nested braces",
			in:   `result {"a":{"b":1}} trailing`,
			want: `{"a":{"b":1}}`,
		},
		{
			name: "no json falls through",
			in:   "nothing here",
			want: "nothing here",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstJSON(tt.in); got != tt.want {
				t.Fatalf("FirstJSON() got %q, want %q", got, tt.want)
			}
		})
	}
}
