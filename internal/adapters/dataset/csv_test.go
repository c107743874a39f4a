package dataset

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/creditscore/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
)

const sampleCSV = `SK_ID_CURR,AMT_CREDIT,EXT_SOURCE_2,FLAG_OWN_CAR_Y
100002,406597.5,0.2629,False
100003,1293502.5,,True
100004,135000,nan,false
`

func TestReadCSV(t *testing.T) {
	Convey("Given a CSV dataset", t, func() {
		ctx := context.Background()

		Convey("When every row is well formed", func() {
			table, err := ReadCSV(ctx, strings.NewReader(sampleCSV), "")

			Convey("Then the identifier column should be excluded from features", func() {
				So(err, ShouldBeNil)
				So(table.Columns(), ShouldResemble, []string{"AMT_CREDIT", "EXT_SOURCE_2", "FLAG_OWN_CAR_Y"})
			})

			Convey("Then identifiers should keep file order", func() {
				So(table.IDs(ctx), ShouldResemble, []int64{100002, 100003, 100004})
			})

			Convey("Then empty and nan cells should be missing and booleans numeric", func() {
				rec, err := table.Lookup(ctx, 100003)
				So(err, ShouldBeNil)
				So(rec.Features[0], ShouldEqual, 1293502.5)
				So(math.IsNaN(rec.Features[1]), ShouldBeTrue)
				So(rec.Features[2], ShouldEqual, 1)

				rec, err = table.Lookup(ctx, 100004)
				So(err, ShouldBeNil)
				So(math.IsNaN(rec.Features[1]), ShouldBeTrue)
				So(rec.Features[2], ShouldEqual, 0)
			})
		})

		Convey("When header names carry surrounding spaces", func() {
			data := " SK_ID_CURR , AMT_CREDIT\n100002,10\n"
			table, err := ReadCSV(ctx, strings.NewReader(data), "")

			Convey("Then both the identifier and feature columns should be found", func() {
				So(err, ShouldBeNil)
				So(table.IDs(ctx), ShouldResemble, []int64{100002})
				So(table.Columns(), ShouldResemble, []string{"AMT_CREDIT"})
			})
		})

		Convey("When the identifier column is not first", func() {
			data := "AMT_CREDIT,client\n10,7\n20,8\n"
			table, err := ReadCSV(ctx, strings.NewReader(data), "client")

			Convey("Then the configured column should be used", func() {
				So(err, ShouldBeNil)
				So(table.IDs(ctx), ShouldResemble, []int64{7, 8})
				rec, _ := table.Lookup(ctx, 8)
				So(rec.Features, ShouldResemble, []float64{20})
			})
		})

		Convey("When the file starts with a byte order mark", func() {
			data := "\ufeffSK_ID_CURR,x\n1,2\n"
			table, err := ReadCSV(ctx, strings.NewReader(data), "")

			Convey("Then the identifier column should still be found", func() {
				So(err, ShouldBeNil)
				So(table.Count(ctx), ShouldEqual, 1)
			})
		})

		Convey("When identifiers are written as floats", func() {
			data := "SK_ID_CURR,x\n100002.0,1\n"
			table, err := ReadCSV(ctx, strings.NewReader(data), "")

			Convey("Then integral values should be accepted", func() {
				So(err, ShouldBeNil)
				So(table.IDs(ctx), ShouldResemble, []int64{100002})
			})
		})

		Convey("When the input is broken", func() {
			Convey("Then a missing identifier column should fail", func() {
				_, err := ReadCSV(ctx, strings.NewReader("a,b\n1,2\n"), "")
				So(errors.Is(err, ErrMissingIDColumn), ShouldBeTrue)
			})

			Convey("Then a duplicate identifier should abort loading", func() {
				_, err := ReadCSV(ctx, strings.NewReader("SK_ID_CURR,x\n1,2\n1,3\n"), "")
				So(errors.Is(err, repository.ErrDuplicateID), ShouldBeTrue)
			})

			Convey("Then a non numeric cell should name its row and column", func() {
				_, err := ReadCSV(ctx, strings.NewReader("SK_ID_CURR,x\n1,2\n2,abc\n"), "")
				So(errors.Is(err, ErrInvalidCell), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "row 2")
				So(err.Error(), ShouldContainSubstring, `"x"`)
			})

			Convey("Then a fractional identifier should fail", func() {
				_, err := ReadCSV(ctx, strings.NewReader("SK_ID_CURR,x\n1.5,2\n"), "")
				So(errors.Is(err, ErrInvalidIdentifier), ShouldBeTrue)
			})

			Convey("Then a ragged row should fail", func() {
				_, err := ReadCSV(ctx, strings.NewReader("SK_ID_CURR,x\n1,2,3\n"), "")
				So(errors.Is(err, ErrRaggedRow), ShouldBeTrue)
			})

			Convey("Then an empty file should fail", func() {
				_, err := ReadCSV(ctx, strings.NewReader(""), "")
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := ReadCSV(cctx, strings.NewReader(sampleCSV), "")

			Convey("Then loading should stop", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestCSVSource_Load(t *testing.T) {
	Convey("Given a CSV file on disk", t, func() {
		path := filepath.Join(t.TempDir(), "clients.csv")
		So(os.WriteFile(path, []byte(sampleCSV), 0o600), ShouldBeNil)

		Convey("When loading it through the source", func() {
			src := &CSVSource{Path: path}
			table, err := src.Load(context.Background())

			Convey("Then all rows should be available", func() {
				So(err, ShouldBeNil)
				So(table.Count(context.Background()), ShouldEqual, 3)
				So(src.String(), ShouldEqual, "csv:"+path)
			})
		})

		Convey("When the file does not exist", func() {
			src := &CSVSource{Path: filepath.Join(t.TempDir(), "missing.csv")}
			_, err := src.Load(context.Background())

			Convey("Then the error should wrap the filesystem error", func() {
				So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
			})
		})
	})
}

func TestParseCell(t *testing.T) {
	Convey("Given raw cell values", t, func() {
		Convey("Then driver values should convert to floats", func() {
			for in, want := range map[any]float64{
				int64(3):  3,
				2.5:       2.5,
				true:      1,
				false:     0,
				"  4.25 ": 4.25,
				"TRUE":    1,
			} {
				got, err := parseCell(in)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, want)
			}

			got, err := parseCell([]byte("-1e3"))
			So(err, ShouldBeNil)
			So(got, ShouldEqual, -1000)
		})

		Convey("Then null-like values should be missing", func() {
			for _, in := range []any{nil, "", "NaN", "null", "NA"} {
				got, err := parseCell(in)
				So(err, ShouldBeNil)
				So(math.IsNaN(got), ShouldBeTrue)
			}
		})

		Convey("Then unknown types should be rejected", func() {
			_, err := parseCell(struct{}{})
			So(errors.Is(err, ErrInvalidCell), ShouldBeTrue)
		})
	})
}
