package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"zenpdf-worker/configs"
	"zenpdf-worker/internal/models"
	"zenpdf-worker/internal/pkg/pdf"
	"zenpdf-worker/internal/pkg/toolrunner"
	"zenpdf-worker/internal/pkg/workererr"
)

// Run executes the full compression algorithm against src, writing the
// chosen output to outputPath inside a scratch directory the caller
// owns (and is responsible for removing). It returns the final path
// (always outputPath on success) and a Report describing what
// happened.
func Run(ctx context.Context, runner *toolrunner.Runner, dir, src, outputPath string, cfg configs.CompressConfig) (string, *Report, error) {
	report := &Report{Profile: cfg.Profile}

	info, err := pdf.Inspect(src)
	if err != nil {
		if errors.Is(err, pdf.ErrEncrypted) {
			return "", report, workererr.User("PDF is encrypted")
		}
		report.warn("preflight page count unavailable: " + err.Error())
		info = pdf.Info{Pages: 1, SizeBytes: statSize(src)}
	}
	if info.Pages < 1 {
		info.Pages = 1
	}
	report.OriginalBytes = info.SizeBytes

	sizeMb := sizeMB(info.SizeBytes)
	timeout := computeTimeout(cfg, sizeMb, info.Pages)

	imgMetrics, err := classifyImageHeavy(src, info.Pages)
	if err != nil {
		report.warn("image-density sampling unavailable: " + err.Error())
	}
	report.ImageMetrics = imgMetrics

	s := &stageRunner{runner: runner, dir: dir, cfg: cfg, report: report}

	var all []candidate
	all = append(all, candidate{path: src, method: models.MethodOriginal})

	base := src
	if normalized, ok := s.normalize(ctx, timeout, src); ok {
		all = append(all, normalized)
		base = normalized.path
	}

	all = append(all, s.optimize(ctx, timeout, base)...)

	if cfg.AutoImageHeavy && imgMetrics.ImageHeavy && sizeMb >= cfg.GSMinSizeMB {
		all = append(all, s.earlyGhostscript(ctx, timeout, base)...)
	}

	all = append(all, s.heavyLane(ctx, timeout, info.Pages, base, imgMetrics.ImageHeavy, all)...)

	valid := s.validateAll(ctx, timeout, all, info.Pages)

	winner, ok := selectSmallest(valid)
	if !ok {
		return "", report, workererr.User("Could not compress this PDF due to malformed structure; try Repair PDF first.")
	}

	method := winner.method
	if method == models.MethodOriginal {
		method = models.MethodPassthrough
		report.warn("smallest valid candidate is the original file")
	}

	thresholdMethod, _, _, passed := threshold(report.OriginalBytes, winner.size, cfg.SavingsThresholdPct, float64(cfg.MinSavingsBytes))
	status := "success"
	chosenPath := winner.path
	useOriginal := false
	if !passed {
		status = "no_change"
		method = thresholdMethod
		chosenPath = src
		useOriginal = true
	}

	var materializeErr error
	if useOriginal {
		materializeErr = copyFile(chosenPath, outputPath)
	} else {
		materializeErr = materialize(chosenPath, outputPath)
	}
	if materializeErr != nil {
		return "", report, materializeErr
	}

	finalPath, finalSize := s.determinismAndZopfli(ctx, timeout, outputPath, info.Pages)

	report.Status = status
	report.Method = method
	report.OutputBytes = finalSize
	report.SavingsBytes = report.OriginalBytes - finalSize
	if report.OriginalBytes > 0 {
		_, _, pct, _ := threshold(report.OriginalBytes, finalSize, 0, 0)
		report.SavingsPercent = pct
	}

	keep := map[string]bool{src: true, outputPath: true}
	cleanup(dir, keep)

	return finalPath, report, nil
}

// heavyLane runs the independent heavy-stage tasks. When parallelism
// allows more than one concurrent task it fans them out with a
// goroutine per lane; otherwise it runs them sequentially in the same
// order so behavior stays deterministic under ZENPDF_COMPRESS_PARALLELISM=1.
func (s *stageRunner) heavyLane(ctx context.Context, timeout time.Duration, pages int, base string, imageHeavy bool, soFar []candidate) []candidate {
	type lane func() (candidate, bool)

	bestSoFar := int64(-1)
	for _, c := range soFar {
		if stat, err := os.Stat(c.path); err == nil {
			if bestSoFar == -1 || stat.Size() < bestSoFar {
				bestSoFar = stat.Size()
			}
		}
	}
	thresholdMet := bestSoFar >= 0 && thresholdMetForBytes(s.report.OriginalBytes, bestSoFar, s.cfg.SavingsThresholdPct, float64(s.cfg.MinSavingsBytes))

	var lanes []lane
	if s.cfg.EnableImageOpt {
		lanes = append(lanes, func() (candidate, bool) { return s.imageOptLane(ctx, timeout, base) })
	}
	if s.cfg.EnablePDFSizeOpt && !thresholdMet {
		lanes = append(lanes, func() (candidate, bool) { return s.pdfsizeoptLane(ctx, timeout, base) })
	}
	if !imageHeavy {
		lanes = append(lanes, func() (candidate, bool) { return s.ghostscriptLane(ctx, timeout, pages, base) })
	}

	if len(lanes) == 0 {
		return nil
	}
	if s.cfg.Parallelism <= 1 || len(lanes) == 1 {
		var out []candidate
		for _, l := range lanes {
			if c, ok := l(); ok {
				out = append(out, c)
			}
		}
		return out
	}

	results := make([]candidate, len(lanes))
	ok := make([]bool, len(lanes))
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.cfg.Parallelism)
	for i, l := range lanes {
		wg.Add(1)
		go func(i int, l lane) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i], ok[i] = l()
		}(i, l)
	}
	wg.Wait()

	var out []candidate
	for i, got := range ok {
		if got {
			out = append(out, results[i])
		}
	}
	return out
}

func thresholdMetForBytes(originalBytes, candidateBytes int64, minPct, minBytes float64) bool {
	_, _, _, passed := threshold(originalBytes, candidateBytes, minPct, minBytes)
	return passed
}

// validateAll runs the validation predicate over every generated
// candidate, discarding anything that fails it.
func (s *stageRunner) validateAll(ctx context.Context, timeout time.Duration, candidates []candidate, expectedPages int) []validated {
	var out []validated
	for _, c := range candidates {
		if !s.validate(ctx, timeout, c, expectedPages) {
			continue
		}
		stat, err := os.Stat(c.path)
		if err != nil {
			continue
		}
		out = append(out, validated{candidate: c, size: stat.Size()})
	}
	return out
}

// determinismAndZopfli runs the determinism pass and, if configured,
// the zopfli pass over outputPath, adopting each only on success (and,
// for zopfli, only when it independently clears the savings
// threshold). It returns the final path and its size.
func (s *stageRunner) determinismAndZopfli(ctx context.Context, fullTimeout time.Duration, outputPath string, expectedPages int) (string, int64) {
	detTimeout := fullTimeout
	if ceiling := 120 * time.Second; detTimeout > ceiling {
		detTimeout = ceiling
	}

	finalPath := outputPath
	if dest, ok := s.determinismPass(ctx, detTimeout, outputPath, false); ok {
		cand := candidate{path: dest, method: models.MethodPassthrough}
		if s.validate(ctx, detTimeout, cand, expectedPages) {
			if err := materialize(dest, outputPath); err == nil {
				finalPath = outputPath
			}
		}
	}

	if s.cfg.UseZopfli && toolrunner.Available("qpdf") {
		if dest, ok := s.determinismPass(ctx, detTimeout, outputPath, true); ok {
			beforeStat, _ := os.Stat(outputPath)
			afterStat, err := os.Stat(dest)
			if err == nil && beforeStat != nil {
				cand := candidate{path: dest, method: models.MethodPassthrough}
				if s.validate(ctx, detTimeout, cand, expectedPages) {
					if _, _, _, passed := threshold(beforeStat.Size(), afterStat.Size(), s.cfg.SavingsThresholdPct, float64(s.cfg.MinSavingsBytes)); passed {
						if err := materialize(dest, outputPath); err == nil {
							finalPath = outputPath
						}
					}
				}
			}
		}
	}

	stat, err := os.Stat(finalPath)
	if err != nil {
		return finalPath, 0
	}
	return finalPath, stat.Size()
}

// materialize moves src onto dest, falling back to a copy when the
// rename fails (for example across filesystems).
func materialize(src, dest string) error {
	if src == dest {
		return nil
	}
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	return copyFile(src, dest)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func statSize(path string) int64 {
	stat, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return stat.Size()
}
