package knowledge

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/shindan/internal/models"
)

func TestDefault(t *testing.T) {
	b, err := Default()
	require.NoError(t, err)
	require.NoError(t, b.Validate())
	assert.Len(t, b.Symptoms, 20)
	assert.Len(t, b.Advice, 10)
	assert.Len(t, b.Mappings, 26)

	assert.Equal(t, "Chest pain", b.Symptoms[14].Name)
	assert.Equal(t, models.SeverityEmergency, b.Symptoms[14].Severity)
	assert.Equal(t, models.Mapping{SymptomID: 15, AdviceID: 8, Weight: 1.0}, b.Mappings[19])
}

func TestLoad_yaml(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kb.yaml")
	content := `
symptoms:
  - {id: 1, name: Headache, category: neurological, severity_level: medium}
advice:
  - {id: 1, title: Rest, description: d, recommendation: r, severity_level: low, category: general}
mappings:
  - {symptom_id: 1, advice_id: 1, weight: 1.2}
keywords:
  - {keyword: migrane, symptom: Headache}
synonyms:
  headache: [pounding head]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	b, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1.2, b.Mappings[0].Weight)

	got := b.Extractor().Extract("migrane and a pounding head", b.Symptoms)
	require.Len(t, got, 1)
	assert.Equal(t, "Headache", got[0].Name)
}

func TestLoad_unsupportedExtension(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "kb.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestParse_unknownField(t *testing.T) {
	_, err := Parse([]byte("symptoms: []\nbogus: 1\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	b := &Base{
		Symptoms: []models.Symptom{
			{ID: 1, Name: "Headache", Severity: models.SeverityMedium},
			{ID: 1, Name: "Fever", Severity: models.SeverityLow},
			{ID: 2, Name: "headache", Severity: models.SeverityUnknown},
		},
		Advice: []models.AdviceEntry{
			{ID: 1, Title: "Rest", Severity: models.SeverityLow},
		},
		Mappings: []models.Mapping{
			{SymptomID: 1, AdviceID: 1, Weight: 0.5},
			{SymptomID: 1, AdviceID: 1, Weight: 0.5},
			{SymptomID: 9, AdviceID: 1, Weight: 0.5},
			{SymptomID: 2, AdviceID: 7, Weight: 0},
		},
	}

	err := b.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	msg := err.Error()
	for _, want := range []string{
		"symptom 1: duplicate id",
		"already used by symptom 1",
		"symptom 2: unknown severity_level",
		"mapping 1->1: duplicate pair",
		"mapping 9->1: unknown symptom",
		"mapping 2->7: unknown advice",
		"mapping 2->7: weight must be positive",
	} {
		assert.True(t, strings.Contains(msg, want), "missing %q in %s", want, msg)
	}
}

func TestValidate_empty(t *testing.T) {
	err := (&Base{}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no symptoms")
}

func TestXLSX_roundTrip(t *testing.T) {
	b, err := Default()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, b.WriteXLSX(&buf))

	decoded, err := ParseXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.NoError(t, decoded.Validate())
	assert.Equal(t, b.Symptoms, decoded.Symptoms)
	assert.Equal(t, b.Advice, decoded.Advice)
	assert.Equal(t, b.Mappings, decoded.Mappings)

	want, err := b.Fingerprint()
	require.NoError(t, err)
	got, err := decoded.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoad_xlsx(t *testing.T) {
	b, err := Default()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "kb.xlsx")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, b.WriteXLSX(f))
	require.NoError(t, f.Close())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, loaded.Symptoms, 20)
}

func TestFingerprint(t *testing.T) {
	a, err := Default()
	require.NoError(t, err)
	b, err := Default()
	require.NoError(t, err)

	fa, err := a.Fingerprint()
	require.NoError(t, err)
	fb, err := b.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fa, fb)
	assert.True(t, strings.HasPrefix(fa, fingerprintPrefix))

	b.Mappings[0].Weight = 0.95
	fc, err := b.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, fa, fc)
}

func TestSave(t *testing.T) {
	b, err := Default()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "nested", "kb.yaml")
	require.NoError(t, b.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, b.Advice, loaded.Advice)
}
