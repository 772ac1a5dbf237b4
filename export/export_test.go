package export_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"runtime"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campkitchen/ent"
	"campkitchen/export"
	"campkitchen/importer"
	"campkitchen/store"
)

func fixtures() []ent.RecipeWithIngredients {
	return []ent.RecipeWithIngredients{
		{
			Recipe: ent.Recipe{ID: ent.Int64(1), Name: "Kartoffelsuppe", BaseServings: 4, Instructions: "Schälen und kochen."},
			Ingredients: []ent.Ingredient{
				{Name: "Kartoffel", Unit: "kg", AmountPerServing: 0.25, Notes: ent.String("mehlig")},
				{Name: "Milch", Unit: "l", AmountPerServing: 0.05, Notes: ent.String("3,5% Fett")},
			},
		},
		{
			Recipe: ent.Recipe{ID: ent.Int64(2), Name: "Kartoffelsalat", CategoryID: ent.Int64(5), BaseServings: 2},
			Ingredients: []ent.Ingredient{
				{Name: "Kartoffel", Unit: "g", AmountPerServing: 30, Notes: ent.String("frisch")},
			},
		},
		{
			Recipe: ent.Recipe{ID: ent.Int64(3), Name: "Leer", BaseServings: 1},
		},
	}
}

func lines(ls ...string) string {
	nl := "\n"
	if runtime.GOOS == "windows" {
		nl = "\r\n"
	}
	return strings.Join(ls, nl) + nl
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.CSV(&buf, fixtures()))

	want := lines(
		"recipe_id;name;category_id;base_servings;instructions;ingredient_name;ingredient_unit;ingredient_amount_per_serving;ingredient_amount_total;ingredient_notes",
		"1;Kartoffelsuppe;;4;Schälen und kochen.;Kartoffel;kg;0.25;1;mehlig",
		"1;Kartoffelsuppe;;4;Schälen und kochen.;Milch;l;0.05;0.2;3,5% Fett",
		"2;Kartoffelsalat;5;2;;Kartoffel;g;30;60;frisch",
	)
	assert.Equal(t, want, buf.String())
}

func TestCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.CSV(&buf, nil))
	assert.Equal(t, lines(strings.Join(export.Header, ";")), buf.String())
}

func TestPlainText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.PlainText(&buf, fixtures()))

	want := "Kartoffelsuppe\n" +
		"Kategorie-ID: -\n" +
		"Portionen: 4\n" +
		"Zutaten:\n" +
		"- 1 kg Kartoffel\n" +
		"- 0.2 l Milch\n" +
		"Anleitung:\n" +
		"Schälen und kochen.\n" +
		"\n" +
		"Kartoffelsalat\n" +
		"Kategorie-ID: 5\n" +
		"Portionen: 2\n" +
		"Zutaten:\n" +
		"- 60 g Kartoffel\n" +
		"Anleitung:\n" +
		"\n" +
		"Leer\n" +
		"Kategorie-ID: -\n" +
		"Portionen: 1\n" +
		"Zutaten:\n" +
		"Anleitung:\n"
	assert.Equal(t, want, buf.String())
}

type failingWriter struct{}

var errDiskFull = errors.New("disk full")

func (failingWriter) Write([]byte) (int, error) { return 0, errDiskFull }

func TestWriteFailure(t *testing.T) {
	err := export.CSV(failingWriter{}, fixtures())
	assert.ErrorIs(t, err, ent.ErrIOFailure)
	assert.ErrorIs(t, err, errDiskFull)

	err = export.PlainText(failingWriter{}, fixtures())
	assert.ErrorIs(t, err, ent.ErrIOFailure)
	assert.ErrorIs(t, err, errDiskFull)
}

func TestFormatAmount(t *testing.T) {
	third, perServing := 1.0, 0.05
	third /= 3
	for _, tc := range []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{60, "60"},
		{perServing * 4, "0.2"},
		{third, "0.333333"},
		{2.5, "2.5"},
		{0.0000004, "0"},
		{0.0000006, "0.000001"},
		{-1.5, "-1.5"},
	} {
		assert.Equal(t, tc.want, export.FormatAmount(tc.in), "%v", tc.in)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	ctx := context.Background()

	recipes := fixtures()[:2]
	recipes[1].Instructions = "Kochen.\n\nAbkühlen lassen; dann schneiden."

	var buf bytes.Buffer
	require.NoError(t, export.CSV(&buf, recipes))

	repo := store.NewMemoryStore(log)
	got, err := importer.CSV(ctx, &buf, repo, importer.WithLogger(log))
	require.NoError(t, err)
	require.Len(t, got, 2)

	for i, want := range recipes {
		assert.Equal(t, want.Name, got[i].Name)
		assert.Equal(t, want.BaseServings, got[i].BaseServings)
		assert.Equal(t, want.Instructions, got[i].Instructions)
		assert.Equal(t, want.CategoryID, got[i].CategoryID)
		require.Len(t, got[i].Ingredients, len(want.Ingredients))
		for j, ing := range want.Ingredients {
			assert.Equal(t, ing.Name, got[i].Ingredients[j].Name)
			assert.Equal(t, ing.Unit, got[i].Ingredients[j].Unit)
			assert.InDelta(t, ing.AmountPerServing, got[i].Ingredients[j].AmountPerServing, 1e-9)
			assert.Equal(t, ing.Notes, got[i].Ingredients[j].Notes)
		}
	}

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Uploader(t *testing.T) {
	putter := &fakePutter{}
	up := export.NewS3Uploader(putter, "camp-exports")

	var buf bytes.Buffer
	require.NoError(t, export.CSV(&buf, fixtures()))

	err := up.Upload(context.Background(), "2026/recipes.csv", "text/csv", buf.Bytes())
	require.NoError(t, err)

	require.NotNil(t, putter.input)
	assert.Equal(t, "camp-exports", *putter.input.Bucket)
	assert.Equal(t, "2026/recipes.csv", *putter.input.Key)
	assert.Equal(t, "text/csv", *putter.input.ContentType)
	assert.Equal(t, buf.Bytes(), putter.body)
}

func TestS3Uploader_Error(t *testing.T) {
	denied := errors.New("access denied")
	up := export.NewS3Uploader(&fakePutter{err: denied}, "camp-exports")

	err := up.Upload(context.Background(), "recipes.txt", "text/plain", []byte("x"))
	assert.ErrorIs(t, err, denied)
	assert.Contains(t, err.Error(), "s3://camp-exports/recipes.txt")
}
