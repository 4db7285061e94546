package models

import "testing"

func TestItemKey(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want string
	}{
		{
			"url wins over card fields",
			Item{Name: "Booster Box 151", URL: "https://liga.test/p/1"},
			"https://liga.test/p/1",
		},
		{
			"card identity",
			Item{Name: "Charizard ex", Collection: "OBF", Number: "125"},
			"Charizard ex|OBF|125",
		},
	}

	for _, tt := range tests {
		if got := tt.item.Key(); got != tt.want {
			t.Errorf("%s: Key() = %q; want %q", tt.name, got, tt.want)
		}
	}
}

func TestItemLabel(t *testing.T) {
	tests := []struct {
		item Item
		want string
	}{
		{Item{Name: "Charizard ex", Collection: "OBF", Number: "125"}, "Charizard ex (125)"},
		{Item{Name: "Booster Box 151"}, "Booster Box 151"},
		{Item{URL: "https://liga.test/p/1"}, "https://liga.test/p/1"},
	}

	for _, tt := range tests {
		if got := tt.item.Label(); got != tt.want {
			t.Errorf("Label() = %q; want %q", got, tt.want)
		}
	}
}

func TestItemValidate(t *testing.T) {
	tests := []struct {
		name    string
		item    Item
		wantErr bool
	}{
		{"full card", Item{Name: "Charizard ex", Collection: "OBF", Number: "125"}, false},
		{"url only", Item{URL: "https://liga.test/p/1"}, false},
		{"empty", Item{}, true},
		{"missing collection", Item{Name: "Charizard ex", Number: "125"}, true},
		{"missing number", Item{Name: "Charizard ex", Collection: "OBF"}, true},
		{"missing name", Item{Collection: "OBF", Number: "125"}, true},
	}

	for _, tt := range tests {
		err := tt.item.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() = %v; wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}
