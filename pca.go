package main

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// columns that describe a row rather than measure it
var identifierColumns = []string{"playerID", "first name", "last name", "Team", "Opponent", "Scored?"}

// biplots get unreadable past this many loading arrows
const maxBiplotLoadings = 12

// FeatureTable is a standardized feature matrix: one row per player-date, one
// column per feature.
type FeatureTable struct {
	Features  []string
	PlayerIDs []int64
	Labels    []int
	X         *mat.Dense
	// rows dropped for missing values
	Dropped int
}

// LoadFeatureTable reads dataset files, keeps the numeric non-identifier
// columns, drops rows with missing values and columns without variance, and
// z-scores what is left.
func LoadFeatureTable(paths []string) (FeatureTable, error) {
	if len(paths) == 0 {
		return FeatureTable{}, errors.New("no dataset files given")
	}

	var df dataframe.DataFrame
	for i, path := range paths {
		part, err := readDataset(path)
		if err != nil {
			return FeatureTable{}, err
		}
		if i == 0 {
			df = part
			continue
		}
		df = df.RBind(part)
		if df.Err != nil {
			return FeatureTable{}, fmt.Errorf("combining %s: %w", path, df.Err)
		}
	}

	for _, name := range []string{"playerID", "Scored?"} {
		if !hasColumn(df.Names(), name) {
			return FeatureTable{}, fmt.Errorf("dataset has no %s column", name)
		}
	}
	ids, err := df.Col("playerID").Int()
	if err != nil {
		return FeatureTable{}, fmt.Errorf("playerID: %w", err)
	}
	labels, err := df.Col("Scored?").Int()
	if err != nil {
		return FeatureTable{}, fmt.Errorf("Scored?: %w", err)
	}

	var names []string
	var cols [][]float64
	for _, name := range df.Names() {
		if hasColumn(identifierColumns, name) {
			continue
		}
		col := df.Col(name)
		if col.Type() != series.Int && col.Type() != series.Float {
			continue
		}
		names = append(names, name)
		cols = append(cols, col.Float())
	}

	keep := []int{}
	for r := 0; r < df.Nrow(); r++ {
		complete := true
		for _, col := range cols {
			if math.IsNaN(col[r]) {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, r)
		}
	}

	table := FeatureTable{Dropped: df.Nrow() - len(keep)}
	var means, stds []float64
	var kept [][]float64
	for c, col := range cols {
		vals := make([]float64, len(keep))
		for i, r := range keep {
			vals[i] = col[r]
		}
		mean, std := stat.MeanStdDev(vals, nil)
		if std == 0 || math.IsNaN(std) {
			continue
		}
		table.Features = append(table.Features, names[c])
		means = append(means, mean)
		stds = append(stds, std)
		kept = append(kept, vals)
	}

	if len(keep) < 2 || len(table.Features) < 2 {
		return FeatureTable{}, fmt.Errorf("need at least 2 complete rows and 2 varying features, have %d and %d", len(keep), len(table.Features))
	}

	table.X = mat.NewDense(len(keep), len(table.Features), nil)
	for c, vals := range kept {
		for i, v := range vals {
			table.X.Set(i, c, (v-means[c])/stds[c])
		}
	}
	for _, r := range keep {
		table.PlayerIDs = append(table.PlayerIDs, int64(ids[r]))
		table.Labels = append(table.Labels, labels[r])
	}
	return table, nil
}

func readDataset(path string) (dataframe.DataFrame, error) {
	dataFile, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer dataFile.Close()

	// RBind casts to the first file's column types, so features are always Float.
	df := dataframe.ReadCSV(dataFile,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.Float),
		dataframe.WithTypes(map[string]series.Type{
			"playerID":   series.Int,
			"first name": series.String,
			"last name":  series.String,
			"Team":       series.String,
			"Opponent":   series.String,
			"Scored?":    series.Int,
		}),
	)
	if df.Err != nil {
		return df, fmt.Errorf("reading %s: %w", path, df.Err)
	}
	return df, nil
}

// PCAResult holds the projection onto the first two principal components.
type PCAResult struct {
	Table    FeatureTable
	Scores   *mat.Dense // rows × 2
	Loadings *mat.Dense // features × 2
	Variance []float64
	// Explained is each component's share of the total variance, largest first.
	Explained []float64
}

func RunPCA(table FeatureTable) (PCAResult, error) {
	var pc stat.PC
	if ok := pc.PrincipalComponents(table.X, nil); !ok {
		return PCAResult{}, errors.New("principal component analysis failed")
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)

	total := floats.Sum(vars)
	explained := make([]float64, len(vars))
	for i, v := range vars {
		explained[i] = v / total
	}

	d := len(table.Features)
	loadings := mat.DenseCopyOf(vecs.Slice(0, d, 0, 2))
	var scores mat.Dense
	scores.Mul(table.X, loadings)

	return PCAResult{
		Table:     table,
		Scores:    &scores,
		Loadings:  loadings,
		Variance:  vars,
		Explained: explained,
	}, nil
}

type PCAScoreRow struct {
	PlayerID int64   `csv:"playerID"`
	Scored   int     `csv:"Scored?"`
	PC1      float64 `csv:"PC1"`
	PC2      float64 `csv:"PC2"`
}

type PCALoadingRow struct {
	Feature string  `csv:"feature"`
	PC1     float64 `csv:"PC1"`
	PC2     float64 `csv:"PC2"`
}

type PCAVarianceRow struct {
	Component  int     `csv:"component"`
	Variance   float64 `csv:"variance"`
	Explained  float64 `csv:"explained"`
	Cumulative float64 `csv:"cumulative"`
}

// WritePCAOutputs writes pca_scores.csv, pca_loadings.csv and pca_variance.csv
// into dir.
func WritePCAOutputs(dir string, res PCAResult) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	scores := []PCAScoreRow{}
	for i, id := range res.Table.PlayerIDs {
		scores = append(scores, PCAScoreRow{
			PlayerID: id,
			Scored:   res.Table.Labels[i],
			PC1:      res.Scores.At(i, 0),
			PC2:      res.Scores.At(i, 1),
		})
	}
	if err := marshalCSV(filepath.Join(dir, "pca_scores.csv"), &scores); err != nil {
		return err
	}

	loadings := []PCALoadingRow{}
	for i, feature := range res.Table.Features {
		loadings = append(loadings, PCALoadingRow{
			Feature: feature,
			PC1:     res.Loadings.At(i, 0),
			PC2:     res.Loadings.At(i, 1),
		})
	}
	if err := marshalCSV(filepath.Join(dir, "pca_loadings.csv"), &loadings); err != nil {
		return err
	}

	variance := []PCAVarianceRow{}
	cumulative := 0.0
	for i, v := range res.Variance {
		cumulative += res.Explained[i]
		variance = append(variance, PCAVarianceRow{
			Component:  i + 1,
			Variance:   v,
			Explained:  res.Explained[i],
			Cumulative: cumulative,
		})
	}
	return marshalCSV(filepath.Join(dir, "pca_variance.csv"), &variance)
}

func marshalCSV(path string, rows interface{}) error {
	csvFile, err := os.Create(path)
	if err != nil {
		return err
	}
	defer csvFile.Close()

	return gocsv.MarshalFile(rows, csvFile)
}

// Biplot draws the scores colored by label with the strongest loadings as
// arrows from the origin, scaled to the spread of the scores.
func Biplot(res PCAResult, path string) error {
	p := plot.New()
	p.Title.Text = "PCA biplot"
	p.X.Label.Text = fmt.Sprintf("PC1 (%.1f%%)", 100*res.Explained[0])
	p.Y.Label.Text = fmt.Sprintf("PC2 (%.1f%%)", 100*res.Explained[1])
	p.Add(plotter.NewGrid())

	var scored, missed plotter.XYs
	maxScore := 0.0
	for i, label := range res.Table.Labels {
		pt := plotter.XY{X: res.Scores.At(i, 0), Y: res.Scores.At(i, 1)}
		maxScore = math.Max(maxScore, math.Max(math.Abs(pt.X), math.Abs(pt.Y)))
		if label == 1 {
			scored = append(scored, pt)
		} else {
			missed = append(missed, pt)
		}
	}

	for _, group := range []struct {
		name  string
		pts   plotter.XYs
		color color.Color
	}{
		{"no goal", missed, color.RGBA{R: 120, G: 120, B: 120, A: 160}},
		{"scored", scored, color.RGBA{R: 200, G: 30, B: 30, A: 255}},
	} {
		if len(group.pts) == 0 {
			continue
		}
		s, err := plotter.NewScatter(group.pts)
		if err != nil {
			return err
		}
		s.GlyphStyle.Color = group.color
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Radius = vg.Points(2)
		p.Add(s)
		p.Legend.Add(group.name, s)
	}

	order := topLoadings(res.Loadings, maxBiplotLoadings)
	maxLoading := 0.0
	for _, i := range order {
		maxLoading = math.Max(maxLoading, math.Hypot(res.Loadings.At(i, 0), res.Loadings.At(i, 1)))
	}
	scale := 1.0
	if maxLoading > 0 && maxScore > 0 {
		scale = 0.8 * maxScore / maxLoading
	}

	tips := make(plotter.XYs, 0, len(order))
	names := make([]string, 0, len(order))
	for _, i := range order {
		tip := plotter.XY{X: scale * res.Loadings.At(i, 0), Y: scale * res.Loadings.At(i, 1)}
		arrow, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, tip})
		if err != nil {
			return err
		}
		arrow.LineStyle.Color = color.RGBA{B: 180, A: 255}
		arrow.LineStyle.Width = vg.Points(1)
		p.Add(arrow)
		tips = append(tips, tip)
		names = append(names, res.Table.Features[i])
	}
	if len(tips) > 0 {
		labels, err := plotter.NewLabels(plotter.XYLabels{XYs: tips, Labels: names})
		if err != nil {
			return err
		}
		p.Add(labels)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return p.Save(12*vg.Inch, 8*vg.Inch, path)
}

// topLoadings returns the indexes of the n features with the longest loading
// vectors.
func topLoadings(loadings *mat.Dense, n int) []int {
	rows, _ := loadings.Dims()
	order := make([]int, rows)
	for i := range order {
		order[i] = i
	}
	norm := func(i int) float64 {
		return math.Hypot(loadings.At(i, 0), loadings.At(i, 1))
	}
	sort.SliceStable(order, func(a, b int) bool {
		return norm(order[a]) > norm(order[b])
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}
