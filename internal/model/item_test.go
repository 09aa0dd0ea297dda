package model

import "testing"

func TestNewItemSpecificationsRequiresColor(t *testing.T) {
	if _, err := NewItemSpecifications(""); err != ErrColorRequired {
		t.Fatalf("expected ErrColorRequired, got %v", err)
	}
}

func TestNewItemSpecificationsOptions(t *testing.T) {
	s, err := NewItemSpecifications("Indigo",
		WithBrand("Levi's"),
		WithMaterial("Denim"),
		WithFit("Slim"),
		WithCareInstructions("Machine wash cold"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Color != "Indigo" {
		t.Errorf("color = %q, want Indigo", s.Color)
	}
	if s.Brand != "Levi's" || s.Material != "Denim" || s.Fit != "Slim" {
		t.Errorf("options not applied: %+v", s)
	}
	if s.CareInstructions != "Machine wash cold" {
		t.Errorf("care instructions not applied: %+v", s)
	}
	// untouched optionals stay empty
	if s.Pattern != "" || s.Occasion != "" || s.Season != "" {
		t.Errorf("unset options should be empty: %+v", s)
	}
}

func TestNewItemSpecificationsColorOnly(t *testing.T) {
	s, err := NewItemSpecifications("Black")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != (ItemSpecifications{Color: "Black"}) {
		t.Errorf("color-only spec carries extra fields: %+v", s)
	}
}
