package bank

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

var testCategories = []string{"Eins", "Zwei", "Drei", "Vier", "Fuenf"}

func testRaw() Raw {
	raw := Raw{Teams: []string{"A", "B", "C"}}
	for _, c := range testCategories {
		rc := RawCategory{Name: c}
		for _, v := range Values {
			rc.Questions = append(rc.Questions, RawQuestion{
				Value:         v,
				HasTimer:      v >= 60,
				TimeAllowance: 30,
				Text:          fmt.Sprintf("%s fuer %d#zweite Zeile", c, v),
			})
		}
		raw.Categories = append(raw.Categories, rc)
	}
	return raw
}

func TestLoad(t *testing.T) {
	b, err := Load(testRaw())
	if err != nil {
		t.Fatalf("failed to load bank: %s", err)
	}

	if b.Size() != NumCategories*len(Values) {
		t.Errorf("unexpected bank size %d", b.Size())
	}
	if got := b.Categories(); fmt.Sprint(got) != fmt.Sprint(testCategories) {
		t.Errorf("categories out of document order: %v", got)
	}
	if got := b.Teams(); fmt.Sprint(got) != "[A B C]" {
		t.Errorf("unexpected teams %v", got)
	}

	q, ok := b.Question(Key{Category: "Drei", Value: 80})
	if !ok {
		t.Fatal("question Drei/80 missing")
	}
	if !q.HasTimer || q.TimeAllowance != 30 {
		t.Errorf("unexpected timer settings %+v", q)
	}
	if lines := q.Lines(); len(lines) != 2 || lines[1] != "zweite Zeile" {
		t.Errorf("unexpected lines %q", lines)
	}

	keys := b.Keys()
	if len(keys) != 25 || keys[0] != (Key{"Eins", 20}) || keys[24] != (Key{"Fuenf", 100}) {
		t.Errorf("unexpected key order %v", keys)
	}
}

func TestLoadRawRoundTrip(t *testing.T) {
	b, err := Load(testRaw())
	if err != nil {
		t.Fatal(err)
	}
	again, err := Load(b.Raw())
	if err != nil {
		t.Fatalf("bank raw form did not load: %s", err)
	}
	for _, k := range b.Keys() {
		q1, _ := b.Question(k)
		q2, _ := again.Question(k)
		if q1 != q2 {
			t.Errorf("question %s changed: %+v != %+v", k, q1, q2)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Raw)
		want   error
	}{
		{"two teams", func(r *Raw) { r.Teams = r.Teams[:2] }, ErrTeamCountMismatch},
		{"four teams", func(r *Raw) { r.Teams = append(r.Teams, "D") }, ErrTeamCountMismatch},
		{"duplicate team", func(r *Raw) { r.Teams[2] = "A" }, ErrTeamCountMismatch},
		{"empty team", func(r *Raw) { r.Teams[1] = " " }, ErrMalformedSchema},
		{"four categories", func(r *Raw) { r.Categories = r.Categories[:4] }, ErrMalformedSchema},
		{"duplicate category", func(r *Raw) { r.Categories[1].Name = "Eins" }, ErrMalformedSchema},
		{"missing question", func(r *Raw) { r.Categories[2].Questions = r.Categories[2].Questions[:4] }, ErrMalformedSchema},
		{"unknown value", func(r *Raw) { r.Categories[0].Questions[0].Value = 30 }, ErrMalformedSchema},
		{"repeated value", func(r *Raw) { r.Categories[3].Questions[4].Value = 20 }, ErrDuplicateValue},
		{"empty text", func(r *Raw) { r.Categories[4].Questions[1].Text = "" }, ErrMalformedSchema},
		{"negative allowance", func(r *Raw) { r.Categories[4].Questions[1].TimeAllowance = -1 }, ErrMalformedSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := testRaw()
			tt.modify(&raw)

			_, err := Load(raw)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got error %v, want %v", err, tt.want)
			}

			var le *LoadError
			if !errors.As(err, &le) || le.Detail == "" {
				t.Errorf("expected detailed LoadError, got %#v", err)
			}
		})
	}
}

func TestParseLoadErrorKind(t *testing.T) {
	for _, k := range []LoadErrorKind{MalformedSchema, DuplicateValue, TeamCountMismatch} {
		got, ok := ParseLoadErrorKind(k.String())
		if !ok || got != k {
			t.Errorf("failed to parse %s", k)
		}
	}
	if _, ok := ParseLoadErrorKind("Nope"); ok {
		t.Error("parsed unknown kind")
	}
}

const testXML = `<?xml version="1.0" encoding="UTF-8"?>
<grossesquiz>
  <configuration>
    <displayserverhost>10.0.0.7</displayserverhost>
    <displayserverport>4321</displayserverport>
  </configuration>
  <teams><team>A</team><team>B</team><team>C</team></teams>
  <questions>
%s
  </questions>
</grossesquiz>`

func testXMLDocument() string {
	var cats string
	for _, c := range testCategories {
		cats += fmt.Sprintf(`<qcategory name="%s">`, c)
		for _, v := range Values {
			cats += fmt.Sprintf(`<question value="%d" hastime="True" timeallowance="60"><text>Wie heisst die Hauptstadt#von %s %d?</text></question>`, v, c, v)
		}
		cats += "</qcategory>\n"
	}
	return fmt.Sprintf(testXML, cats)
}

func TestReadDocumentXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.xml")
	if err := os.WriteFile(path, []byte(testXMLDocument()), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := ReadDocument(path)
	if err != nil {
		t.Fatalf("failed to read document: %s", err)
	}
	if d.Display.Address() != "10.0.0.7:4321" {
		t.Errorf("unexpected display address %q", d.Display.Address())
	}

	b, err := Load(d.Raw())
	if err != nil {
		t.Fatalf("document did not load: %s", err)
	}
	q, _ := b.Question(Key{Category: "Vier", Value: 100})
	if !q.HasTimer || q.TimeAllowance != 60 || q.Lines()[1] != "von Vier 100?" {
		t.Errorf("unexpected question %+v", q)
	}
}

const testYAML = `
display:
  host: localhost
  port: 5000
teams: [A, B, C]
categories:
`

func TestReadDocumentYAML(t *testing.T) {
	doc := testYAML
	for _, c := range testCategories {
		doc += fmt.Sprintf("  - name: %s\n    questions:\n", c)
		for _, v := range Values {
			doc += fmt.Sprintf("      - {value: %d, has_timer: false, time_allowance: 0, text: \"%s %d\"}\n", v, c, v)
		}
	}

	path := filepath.Join(t.TempDir(), "questions.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := ReadDocument(path)
	if err != nil {
		t.Fatalf("failed to read document: %s", err)
	}
	if d.Display.Address() != "localhost:5000" {
		t.Errorf("unexpected display address %q", d.Display.Address())
	}
	if _, err := Load(d.Raw()); err != nil {
		t.Errorf("document did not load: %s", err)
	}
}

func TestReadDocumentErrors(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "questions.txt")
	os.WriteFile(txt, []byte("teams: []"), 0o644)
	if _, err := ReadDocument(txt); !errors.Is(err, ErrMalformedSchema) {
		t.Errorf("unsupported extension: got %v", err)
	}

	bad := filepath.Join(dir, "questions.yaml")
	os.WriteFile(bad, []byte("teams: [A, B, C]\nbogus: 1\n"), 0o644)
	if _, err := ReadDocument(bad); !errors.Is(err, ErrMalformedSchema) {
		t.Errorf("unknown field: got %v", err)
	}

	if _, err := ReadDocument(filepath.Join(dir, "missing.xml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v", err)
	}
}
