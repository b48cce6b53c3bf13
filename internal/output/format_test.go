package output_test

import (
	"bytes"
	"testing"

	"todosync/internal/identity"
	"todosync/internal/output"
	"todosync/internal/service"
)

func TestFormatListLine(t *testing.T) {
	tests := []struct {
		name string
		list service.List
		want string
	}{
		{
			name: "durable",
			list: service.List{ID: identity.FromServer("abc123"), Title: "Groceries", Tasks: []service.Task{
				{Text: "milk"}, {Text: "eggs", Completed: true},
			}},
			want: "   1  Groceries  (1/2)\n",
		},
		{
			name: "pending",
			list: service.List{ID: identity.Parse("temp_1000"), Title: "Draft"},
			want: "   1  Draft  (0/0) [pending]\n",
		},
		{
			name: "edited offline",
			list: service.List{ID: identity.FromServer("abc123"), Title: "Groceries", Pending: true},
			want: "   1  Groceries  (0/0) [pending]\n",
		},
		{
			name: "untitled",
			list: service.List{ID: identity.FromServer("x"), Title: "   "},
			want: "   1  (untitled)  (0/0)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			output.FormatListLine(&buf, 1, tt.list)
			if got := buf.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatList(t *testing.T) {
	l := service.List{
		ID:    identity.FromServer("abc123"),
		Title: "Groceries",
		Tasks: []service.Task{
			{Text: "bread", Completed: true},
			{Text: "milk"},
			{Text: "coffee\nbeans", Starred: true},
		},
	}

	var buf bytes.Buffer
	output.FormatList(&buf, l)

	want := "------------\n" +
		"Groceries\n" +
		"------------\n" +
		"   1  [ ] coffee beans *\n" +
		"   2  [ ] milk\n" +
		"   3  [x] bread\n"
	if got := buf.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatListHeader_Pending(t *testing.T) {
	var buf bytes.Buffer
	output.FormatListHeader(&buf, service.List{ID: identity.Parse("new_list_5"), Title: "Trip"})

	want := "------------\nTrip [pending]\n------------\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
