package display

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/arduinosa/internal/fsutil"
)

// HTMLRenderer writes an ECharts page per frame. The page reloads itself
// every Refresh so a browser left open on the file follows the sweeps.
type HTMLRenderer struct {
	Path       string
	Refresh    time.Duration
	AssetsHost string
	FS         fsutil.FileSystem
}

// NewHTMLRenderer creates a renderer writing to path on the OS filesystem.
func NewHTMLRenderer(path string, refresh time.Duration) *HTMLRenderer {
	return &HTMLRenderer{
		Path:    path,
		Refresh: refresh,
		FS:      fsutil.OSFileSystem{},
	}
}

// Render draws f and replaces the output page.
func (r *HTMLRenderer) Render(f Frame) error {
	page, err := r.page(f)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(r.FS, r.Path, page, 0o644)
}

// Close does nothing; the last page stays on disk.
func (r *HTMLRenderer) Close() error { return nil }

func (r *HTMLRenderer) page(f Frame) ([]byte, error) {
	subtitle := fmt.Sprintf("sweep %d", f.Seq)
	if f.Summary.Count > 0 {
		subtitle += ": " + f.Summary.String()
	}

	xMin, xMax := f.FreqRange()
	initOpts := opts.Initialization{PageTitle: "ArduinoSA", Width: "1000px", Height: "500px"}
	if r.AssetsHost != "" {
		initOpts.AssetsHost = r.AssetsHost
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: "ArduinoSA", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:         "value",
			Name:         "Frequency",
			NameLocation: "middle",
			NameGap:      25,
			Min:          xMin,
			Max:          xMax,
			SplitLine:    &opts.SplitLine{Show: opts.Bool(true)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:         "RSSI",
			NameLocation: "middle",
			NameGap:      30,
			Min:          YMin,
			Max:          YMax,
			SplitLine:    &opts.SplitLine{Show: opts.Bool(true)},
		}),
	)

	if f.Ghost != nil {
		line.AddSeries("previous", lineData(*f.Ghost),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: "red", Type: "dotted"}),
		)
	}
	line.AddSeries("current", lineData(f.Current),
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: "red", Type: "solid"}),
	)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return injectRefresh(buf.Bytes(), r.Refresh), nil
}

func lineData(t Trace) []opts.LineData {
	data := make([]opts.LineData, t.Len())
	for i := range data {
		x, y := t.XY(i)
		data[i] = opts.LineData{Value: []interface{}{x, y}}
	}
	return data
}

// injectRefresh adds a meta refresh tag to the page head. Refresh periods
// are rounded up to whole seconds, the granularity of the tag.
func injectRefresh(page []byte, refresh time.Duration) []byte {
	if refresh <= 0 {
		return page
	}
	secs := int(math.Ceil(refresh.Seconds()))
	tag := fmt.Sprintf("<head>\n    <meta http-equiv=\"refresh\" content=\"%d\">", secs)
	return bytes.Replace(page, []byte("<head>"), []byte(tag), 1)
}
