package wayland

import (
	"encoding/json"
	"testing"
)

func TestFindFocused(t *testing.T) {
	tree := `{
		"name": "root",
		"nodes": [
			{"name": "workspace", "nodes": [
				{"name": "Terminal - vim", "app_id": "foot", "focused": false},
				{"name": "My page", "app_id": "firefox", "focused": true}
			]},
			{"name": "other", "floating_nodes": [
				{"name": "calc", "app_id": "gnome-calculator", "focused": false}
			]}
		]
	}`

	var root swayNode
	if err := json.Unmarshal([]byte(tree), &root); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}

	node := findFocused(&root)
	if node == nil {
		t.Fatal("findFocused() found nothing")
	}
	if node.AppID != "firefox" || node.Name != "My page" {
		t.Errorf("focused node = %s/%s, want firefox/My page", node.AppID, node.Name)
	}
}

func TestFindFocusedXwaylandClass(t *testing.T) {
	tree := `{
		"nodes": [
			{"name": "Legacy app", "focused": true,
			 "window_properties": {"class": "Steam"}}
		]
	}`

	var root swayNode
	if err := json.Unmarshal([]byte(tree), &root); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}

	node := findFocused(&root)
	if node == nil {
		t.Fatal("findFocused() found nothing")
	}
	if node.WindowProperties.Class != "Steam" {
		t.Errorf("class = %q, want Steam", node.WindowProperties.Class)
	}
}

func TestParseGdbusString(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "shell eval payload",
			raw:  `(true, '"firefox\nMy page"')`,
			want: `firefox\nMy page`,
		},
		{
			name: "empty payload",
			raw:  `(true, '""')`,
			want: "",
		},
		{
			name: "garbage",
			raw:  `error`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseGdbusString(tt.raw); got != tt.want {
				t.Errorf("parseGdbusString(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseIdletime(t *testing.T) {
	tests := []struct {
		raw    string
		wantMs int64
		wantOk bool
	}{
		{"(uint64 4242,)", 4242, true},
		{"(uint64 0,)", 0, true},
		{"()", 0, false},
		{"nonsense", 0, false},
	}

	for _, tt := range tests {
		ms, ok := parseIdletime(tt.raw)
		if ms != tt.wantMs || ok != tt.wantOk {
			t.Errorf("parseIdletime(%q) = %d,%v want %d,%v", tt.raw, ms, ok, tt.wantMs, tt.wantOk)
		}
	}
}
