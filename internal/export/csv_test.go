// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func csvText(t *testing.T, rows []Row, opts Options) string {
	t.Helper()
	art, err := ExportCSV(rows, opts)
	require.NoError(t, err)
	return string(art.Data)
}

func TestExportCSV_Structure(t *testing.T) {
	fixClock(t)

	opts := bareOptions(col("Nom", "name"), col("Note", "score"))
	opts.FileName = "notes"
	opts.Title = "Relevé de notes"
	opts.Subtitle = "Session de printemps"
	opts.IncludeTimestamp = true
	opts.Filters = map[string]string{"niveau": "B1", "centre": "Lyon"}
	opts.DateRange = &DateRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
	}

	art, err := ExportCSV(students()[:2], opts)
	require.NoError(t, err)

	want := strings.Join([]string{
		`"Relevé de notes"`,
		`"Session de printemps"`,
		`"Généré le: 05/03/2024 14:30:00"`,
		`"Filtres:"`,
		`"centre: Lyon"`,
		`"niveau: B1"`,
		`"Période: 01/01/2024 - 30/06/2024"`,
		``,
		`Nom,Note`,
		`"Alice","14.5"`,
		`"Bob","9"`,
		``,
	}, "\n")
	assert.Equal(t, want, string(art.Data))
	assert.Equal(t, "notes.csv", art.FileName)
	assert.Equal(t, CSVMimeType, art.MimeType)
}

func TestExportCSV_RoundTrip(t *testing.T) {
	rows := students()
	opts := bareOptions(col("Nom", "name"), col("Niveau", "level"))

	lines := strings.Split(strings.TrimSuffix(csvText(t, rows, opts), "\n"), "\n")
	require.Len(t, lines, len(rows)+1)
	assert.Equal(t, "Nom,Niveau", lines[0])

	for i, line := range lines[1:] {
		cells := strings.Split(line, ",")
		for j := range cells {
			cells[j] = strings.Trim(cells[j], `"`)
		}
		assert.Equal(t, []string{rows[i]["name"].String(), rows[i]["level"].String()}, cells)
	}
}

func TestExportCSV_Escaping(t *testing.T) {
	rows := []Row{{"quote": StringValue(`He said "hi"`), "comma": StringValue("a,b")}}
	out := csvText(t, rows, bareOptions(col("Q", "quote"), col("C", "comma")))
	assert.Contains(t, out, `"He said ""hi""","a,b"`)
}

func TestExportCSV_Grouping(t *testing.T) {
	rows := []Row{
		{"category": StringValue("A"), "v": IntValue(1)},
		{"category": StringValue("B"), "v": IntValue(2)},
		{"category": StringValue("A"), "v": IntValue(3)},
	}
	opts := bareOptions(col("Cat", "category"), col("V", "v"))
	opts.GroupBy = "category"

	want := "Cat,V\n" +
		"\n\"Groupe: A\"\n" +
		"\"A\",\"1\"\n" +
		"\"A\",\"3\"\n" +
		"\n\"Groupe: B\"\n" +
		"\"B\",\"2\"\n"
	out := csvText(t, rows, opts)
	assert.Equal(t, want, out)
	assert.Equal(t, 2, strings.Count(out, `"Groupe: `))
}

func TestExportCSV_GroupUnspecified(t *testing.T) {
	rows := []Row{
		{"name": StringValue("x"), "tutor": StringValue("Marie")},
		{"name": StringValue("y")},
		{"name": StringValue("z"), "tutor": NullValue()},
	}
	opts := bareOptions(col("Nom", "name"))
	opts.GroupBy = "tutor"

	out := csvText(t, rows, opts)
	assert.Contains(t, out, "\"Groupe: Marie\"\n\"x\"\n")
	assert.Contains(t, out, "\"Groupe: Non spécifié\"\n\"y\"\n\"z\"\n")
}

func TestExportCSV_ColumnVisibility(t *testing.T) {
	rows := students()
	all := csvText(t, rows, bareOptions(col("Nom", "name"), col("Niveau", "level"), col("Note", "score")))
	some := csvText(t, rows, bareOptions(col("Nom", "name"), hidden(col("Niveau", "level")), col("Note", "score")))

	allLines := strings.Split(all, "\n")
	someLines := strings.Split(some, "\n")
	require.Equal(t, len(allLines), len(someLines))
	assert.Equal(t, "Nom,Note", someLines[0])
	for i := 1; i < len(allLines)-1; i++ {
		cells := strings.Split(allLines[i], ",")
		assert.Equal(t, cells[0]+","+cells[2], someLines[i])
	}
}

func TestExportCSV_EmptyRows(t *testing.T) {
	out := csvText(t, nil, bareOptions(col("Nom", "name"), col("Note", "score")))
	assert.Equal(t, "Nom,Note\n", out)

	fixClock(t)
	opts := bareOptions(col("Nom", "name"))
	opts.Title = "Vide"
	opts.GroupBy = "name"
	assert.Equal(t, "\"Vide\"\n\nNom\n", csvText(t, nil, opts))
}

func TestExportCSV_NullAndMissing(t *testing.T) {
	rows := []Row{
		{"name": StringValue("Alice"), "phone": NullValue()},
		{"name": StringValue("Bob")},
	}
	out := csvText(t, rows, bareOptions(col("Nom", "name"), col("Tel", "phone")))
	assert.Equal(t, "Nom,Tel\n\"Alice\",\"\"\n\"Bob\",\"\"\n", out)
	assert.NotContains(t, out, "null")
	assert.NotContains(t, out, "undefined")
}

func TestExportCSV_NoColumnsUsesFirstRowKeys(t *testing.T) {
	rows := []Row{{"b": IntValue(2), "a": IntValue(1)}}
	out := csvText(t, rows, bareOptions())
	assert.Equal(t, "a,b\n\"1\",\"2\"\n", out)
}

func TestExportCSV_FormatterOnlySeesValues(t *testing.T) {
	calls := 0
	c := col("Note", "score")
	c.Formatter = func(v Value) (string, error) {
		calls++
		return v.String() + "/20", nil
	}
	rows := []Row{{"score": NumberValue(12)}, {"score": NullValue()}}

	out := csvText(t, rows, bareOptions(c))
	assert.Equal(t, "Note\n\"12/20\"\n\"\"\n", out)
	assert.Equal(t, 1, calls)
}

func TestExportCSV_FormatterErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	c := col("Note", "score")
	c.Formatter = func(Value) (string, error) { return "", boom }

	_, err := ExportCSV([]Row{{"score": IntValue(1)}}, bareOptions(c))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `"score"`)
}

func TestExportCSV_NamedFormat(t *testing.T) {
	c := col("Actif", "active")
	c.Format = "bool"
	out := csvText(t, []Row{{"active": BoolValue(true)}, {"active": BoolValue(false)}}, bareOptions(c))
	assert.Equal(t, "Actif\n\"Oui\"\n\"Non\"\n", out)

	c.Format = "sparkle"
	_, err := ExportCSV(nil, bareOptions(c))
	assert.ErrorIs(t, err, ErrUnknownFormatter)
}
