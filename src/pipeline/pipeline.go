// Package pipeline runs one report build: load, clean, persist, aggregate
// and render.
package pipeline

import (
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/google/uuid"

	"github.com/eshtab/traffic-delay-2022-analysis/src/config"
	"github.com/eshtab/traffic-delay-2022-analysis/src/datasource/file"
	"github.com/eshtab/traffic-delay-2022-analysis/src/metrics"
	"github.com/eshtab/traffic-delay-2022-analysis/src/processor"
	"github.com/eshtab/traffic-delay-2022-analysis/src/report"
	"github.com/eshtab/traffic-delay-2022-analysis/src/storage"
)

// Result summarizes a finished run.
type Result struct {
	RunID       string
	Started     time.Time
	Duration    time.Duration
	Stats       processor.CleanStats
	Snapshot    string // cleaned CSV
	SnapshotXLS string // optional xlsx copy, empty when disabled
	Charts      int
	Manifest    string // empty for clean-only runs
}

type Pipeline struct {
	cfg     *config.Config
	dcfg    *config.DataConfig
	logger  *storage.Logger
	metrics *metrics.BuildMetrics
}

// New returns a Pipeline. A nil data config means the defaults, a nil logger
// discards logs and nil metrics get a private registry.
func New(cfg *config.Config, dcfg *config.DataConfig, logger *storage.Logger, m *metrics.BuildMetrics) *Pipeline {
	if dcfg == nil {
		dcfg = config.DefaultData()
	}
	if logger == nil {
		logger = storage.NewNopLogger()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Pipeline{cfg: cfg, dcfg: dcfg, logger: logger, metrics: m}
}

// Clean loads the raw file, cleans it and writes the snapshots.
func (p *Pipeline) Clean() (Result, error) {
	res, log := p.begin()
	cleaned, err := p.clean(&res, log)
	if err == nil {
		err = p.persist(&res, cleaned)
	}
	return p.finish(res, log, err)
}

// Build runs the whole report. Charts are aggregated before anything is
// written, so a bad date leaves no snapshot behind.
func (p *Pipeline) Build() (Result, error) {
	res, log := p.begin()
	err := p.build(&res, log)
	return p.finish(res, log, err)
}

func (p *Pipeline) begin() (Result, *storage.Logger) {
	res := Result{RunID: uuid.NewString(), Started: time.Now()}
	log := p.logger.WithField("run_id", res.RunID)
	log.WithField("source", p.cfg.RawPath()).Info("build started")
	return res, log
}

func (p *Pipeline) build(res *Result, log *storage.Logger) error {
	cleaned, err := p.clean(res, log)
	if err != nil {
		return err
	}

	charts, err := processor.BuildCharts(cleaned, p.dcfg)
	if err != nil {
		return err
	}
	if err := p.persist(res, cleaned); err != nil {
		return err
	}

	m := &report.Manifest{
		RunID:       res.RunID,
		GeneratedAt: res.Started.UTC(),
		Source:      p.cfg.RawPath(),
		Rows:        cleaned.Nrow(),
	}
	out := report.Output{
		ChartDir: p.cfg.ChartPath(),
		Workbook: p.cfg.WorkbookPath(),
		Manifest: p.cfg.ManifestPath(),
	}
	if err := report.RenderAll(charts, out, m); err != nil {
		return err
	}
	res.Charts = len(charts)
	res.Manifest = out.Manifest
	log.WithFields(map[string]interface{}{
		"charts":   res.Charts,
		"manifest": res.Manifest,
	}).Info("charts rendered")
	return nil
}

func (p *Pipeline) clean(res *Result, log *storage.Logger) (dataframe.DataFrame, error) {
	raw, err := file.Load(p.cfg.RawPath(), file.Options{
		SheetName: p.cfg.SheetName,
		Encoding:  p.cfg.Encoding,
	})
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	log.Infof("loaded %d row(s) from %s", raw.Nrow(), p.cfg.RawPath())

	cleaned, stats, err := processor.NewCleaner(p.dcfg.MaxDelay, log).Clean(raw)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	res.Stats = stats
	p.metrics.ObserveClean(stats.Input, stats.Output, stats.OutOfRange)
	return cleaned, nil
}

// persist writes the cleaned CSV and, when configured, its xlsx copy.
func (p *Pipeline) persist(res *Result, cleaned dataframe.DataFrame) error {
	if err := storage.WriteCSV(cleaned, p.cfg.CleanedPath()); err != nil {
		return err
	}
	res.Snapshot = p.cfg.CleanedPath()

	if xlsxPath := p.cfg.CleanedXLSXPath(); xlsxPath != "" {
		if err := storage.SaveToExcel(cleaned, xlsxPath); err != nil {
			return err
		}
		res.SnapshotXLS = xlsxPath
	}
	return nil
}

// finish records the outcome. A metrics textfile that cannot be written is
// logged and does not fail the run.
func (p *Pipeline) finish(res Result, log *storage.Logger, err error) (Result, error) {
	res.Duration = time.Since(res.Started)
	p.metrics.ObserveBuild(res.Started, res.Charts, err)
	if werr := p.metrics.WriteTextfile(p.cfg.MetricsFile); werr != nil {
		log.WithError(werr).Warning("metrics textfile not written")
	}

	if err != nil {
		log.WithError(err).Error("build failed")
		return res, err
	}
	log.WithField("duration", res.Duration.String()).Info("build finished")
	return res, nil
}
