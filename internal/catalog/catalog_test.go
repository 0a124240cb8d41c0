package catalog

import "testing"

func TestLookup(t *testing.T) {
	category, ok := Lookup("carbon")
	if !ok {
		t.Fatalf("expected carbon to exist")
	}
	if category.Unit != "tCO2e" || category.DefaultPrice <= 0 {
		t.Fatalf("unexpected carbon metadata: %+v", category)
	}

	if _, ok := Lookup("plutonium"); ok {
		t.Fatalf("unknown category should not resolve")
	}
	if _, ok := Lookup(""); ok {
		t.Fatalf("empty category should not resolve")
	}
}

func TestAllCoversEveryCode(t *testing.T) {
	all := All()
	if len(all) == 0 {
		t.Fatalf("catalog is empty")
	}
	for _, category := range all {
		found, ok := Lookup(category.Code)
		if !ok || found != category {
			t.Fatalf("catalog entry %q not resolvable", category.Code)
		}
	}
}
