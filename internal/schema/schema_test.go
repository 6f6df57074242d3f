package schema

import "testing"

func TestRegistry_EveryTypeHasSchema(t *testing.T) {
	seen := make(map[string]bool)
	for _, typ := range Types() {
		s := Lookup(typ)
		if s.Name == "" {
			t.Errorf("type %d has no schema row", typ)
			continue
		}
		if seen[s.Name] {
			t.Errorf("duplicate schema name %q", s.Name)
		}
		seen[s.Name] = true

		if Parse(s.Name) != typ {
			t.Errorf("Parse(%q) = %v, want %v", s.Name, Parse(s.Name), typ)
		}
	}
}

func TestRegistry_NoFieldInBothSets(t *testing.T) {
	for _, typ := range Types() {
		s := Lookup(typ)
		required := make(map[string]bool)
		for _, f := range s.Required {
			if required[f] {
				t.Errorf("%s: required field %q listed twice", s.Name, f)
			}
			required[f] = true
		}
		for _, f := range s.Optional {
			if required[f] {
				t.Errorf("%s: field %q is both required and optional", s.Name, f)
			}
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		want EntryType
	}{
		{"article", Article},
		{"ARTICLE", Article},
		{"  InProceedings ", InProceedings},
		{"phdthesis", PhDThesis},
		{"webpage", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.name); got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestUnknownTypeHasEmptySets(t *testing.T) {
	if IsKnownType("webpage") {
		t.Error("IsKnownType(webpage) = true, want false")
	}
	if got := RequiredFields("webpage"); len(got) != 0 {
		t.Errorf("RequiredFields(webpage) = %v, want empty", got)
	}
	if got := OptionalFields("webpage"); len(got) != 0 {
		t.Errorf("OptionalFields(webpage) = %v, want empty", got)
	}
	if got := Unknown.String(); got != "unknown" {
		t.Errorf("Unknown.String() = %q", got)
	}
}

func TestArticleRequiresJournalAndISSN(t *testing.T) {
	req := RequiredFields("article")
	want := []string{"author", "title", "journal", "year", "issn"}
	if len(req) != len(want) {
		t.Fatalf("RequiredFields(article) = %v, want %v", req, want)
	}
	for i := range want {
		if req[i] != want[i] {
			t.Errorf("RequiredFields(article)[%d] = %q, want %q", i, req[i], want[i])
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		typ, field string
		want       FieldClass
	}{
		{"article", "journal", Required},
		{"article", "volume", Optional},
		{"article", "keywords", Extra},
		{"book", "isbn", Required},
		{"misc", "title", Optional},
		{"webpage", "title", Extra},
	}

	for _, tt := range tests {
		t.Run(tt.typ+"/"+tt.field, func(t *testing.T) {
			if got := Classify(tt.typ, tt.field); got != tt.want {
				t.Errorf("Classify(%q, %q) = %v, want %v", tt.typ, tt.field, got, tt.want)
			}
		})
	}
}
