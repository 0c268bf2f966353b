package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"zenpdf-worker/configs"
	"zenpdf-worker/internal/models"
	"zenpdf-worker/internal/pkg/toolrunner"
)

// candidate pairs a generated file with the method label that
// produced it, before validation has run.
type candidate struct {
	path   string
	method models.CandidateMethod
}

type stageRunner struct {
	runner *toolrunner.Runner
	dir    string
	cfg    configs.CompressConfig
	report *Report
}

func (s *stageRunner) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *stageRunner) record(name string, res toolrunner.Result) {
	notes := res.Stderr
	if notes == "" {
		notes = res.Stdout
	}
	s.report.addStep(models.NewStep(name, res.OK, time.Duration(res.ElapsedMs)*time.Millisecond, notes))
}

// normalize picks the first tool that succeeds at cleaning up the
// source document's internal structure; its output becomes the base
// every later stage builds on.
func (s *stageRunner) normalize(ctx context.Context, timeout time.Duration, src string) (candidate, bool) {
	out := s.path("01_normalize.pdf")

	args := []string{"clean", "-gggg", "-z", "-i", "-f", "-t"}
	if s.cfg.MutoolObjectStreams {
		args = append(args, "-Z")
	}
	args = append(args, src, out)
	res := s.runner.Run(ctx, timeout, nil, "mutool", args...)
	s.record("normalize:mutool", res)
	if res.OK {
		return candidate{path: out, method: models.MethodMutool}, true
	}

	out = s.path("01_normalize_qpdf.pdf")
	res = s.runner.Run(ctx, timeout, nil, "qpdf",
		"--object-streams=generate", "--compress-streams=y", "--recompress-flate", src, out)
	s.record("normalize:qpdf", res)
	if res.OK {
		return candidate{path: out, method: models.MethodQpdf}, true
	}

	// Neither external tool succeeded: fall back to re-emitting the
	// document through pdfcpu, which rewrites every page and recompresses
	// content streams without shelling out.
	out = s.path("01_normalize_pdfcpu.pdf")
	start := time.Now()
	err := api.OptimizeFile(src, out, nil)
	s.record("normalize:pdfcpu", toolrunner.Result{OK: err == nil, ElapsedMs: time.Since(start).Milliseconds()})
	if err == nil {
		return candidate{path: out, method: models.MethodPypdf}, true
	}

	return candidate{}, false
}

// optimize runs the two independent optimizer tools against base,
// each producing at most one candidate.
func (s *stageRunner) optimize(ctx context.Context, timeout time.Duration, base string) []candidate {
	var out []candidate

	qOut := s.path("02_optimized.pdf")
	args := []string{}
	if s.cfg.EnableImageOpt {
		args = append(args,
			"--optimize-images",
			fmt.Sprintf("--oi-quality=%d", s.cfg.QPDFOIQuality),
			fmt.Sprintf("--oi-min-width=%d", s.cfg.QPDFOIMinWidth),
			fmt.Sprintf("--oi-min-height=%d", s.cfg.QPDFOIMinHeight),
			fmt.Sprintf("--oi-min-area=%d", s.cfg.QPDFOIMinArea),
		)
		if s.cfg.QPDFOIKeepInlineImages {
			args = append(args, "--oi-keep-inline-images")
		}
	}
	args = append(args, base, qOut)
	res := s.runner.Run(ctx, timeout, nil, "qpdf", args...)
	s.record("optimize:qpdf", res)
	if res.OK {
		out = append(out, candidate{path: qOut, method: models.MethodQpdfOptimizeImages})
	}

	mOut := s.path("02_mutool_opt.pdf")
	res = s.runner.Run(ctx, timeout, nil, "mutool", "merge", "-O", "compress", base, mOut)
	s.record("optimize:mutool", res)
	if res.OK {
		out = append(out, candidate{path: mOut, method: models.MethodMutool})
	}

	return out
}

// ghostscriptPreset picks the rendering preset for the given profile.
func ghostscriptPreset(cfg configs.CompressConfig) string {
	if cfg.GSPreset != "" {
		return cfg.GSPreset
	}
	if cfg.Profile == "strong" {
		return "screen"
	}
	return "ebook"
}

func (s *stageRunner) ghostscriptArgs(preset, out, src string) []string {
	args := []string{
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.4",
		fmt.Sprintf("-dPDFSETTINGS=/%s", preset),
		"-dNOPAUSE", "-dBATCH", "-dQUIET",
		fmt.Sprintf("-sOutputFile=%s", out),
	}
	if s.cfg.GSPassthroughJPEG {
		args = append(args, "-dAutoFilterColorImages=false", "-dColorImageFilter=/DCTEncode")
	}
	if s.cfg.GSExtraFlags {
		args = append(args, "-dDetectDuplicateImages=true")
	}
	args = append(args, src)
	return args
}

// earlyGhostscript runs Ghostscript directly on the normalized base
// when the document is classified image-heavy and large enough to be
// worth it, followed by a deflate pass over its output.
func (s *stageRunner) earlyGhostscript(ctx context.Context, timeout time.Duration, base string) []candidate {
	var out []candidate
	preset := ghostscriptPreset(s.cfg)
	gsOut := s.path("03_ghostscript.pdf")

	res := s.runner.Run(ctx, timeout, nil, "gs", s.ghostscriptArgs(preset, gsOut, base)...)
	s.record("ghostscript:early", res)
	if !res.OK {
		return out
	}
	out = append(out, candidate{path: gsOut, method: models.MethodGhostscript})

	afterGS := s.path("03_qpdf_after_gs.pdf")
	res = s.runner.Run(ctx, timeout, nil, "qpdf",
		"--object-streams=generate", "--compress-streams=y", "--recompress-flate", gsOut, afterGS)
	s.record("ghostscript:after_gs_qpdf", res)
	if res.OK {
		out = append(out, candidate{path: afterGS, method: models.MethodQpdfAfterGs})
	}
	return out
}

// imageOptLane is one task of the parallel heavy lane.
func (s *stageRunner) imageOptLane(ctx context.Context, timeout time.Duration, base string) (candidate, bool) {
	out := s.path("04_image_opt.pdf")
	args := []string{
		"--optimize-images",
		fmt.Sprintf("--oi-quality=%d", s.cfg.QPDFOIQuality),
		fmt.Sprintf("--oi-min-width=%d", s.cfg.QPDFOIMinWidth),
		fmt.Sprintf("--oi-min-height=%d", s.cfg.QPDFOIMinHeight),
		fmt.Sprintf("--oi-min-area=%d", s.cfg.QPDFOIMinArea),
		base, out,
	}
	res := s.runner.Run(ctx, timeout, nil, "qpdf", args...)
	s.record("heavy:image_opt", res)
	if !res.OK {
		return candidate{}, false
	}
	return candidate{path: out, method: models.MethodQpdfOptimizeImages}, true
}

// pdfsizeoptLane is skipped entirely by the caller once the threshold
// is already met; when it runs it always requires pdfsizeopt, and
// jbig2 in addition when JBIG2 is enabled.
func (s *stageRunner) pdfsizeoptLane(ctx context.Context, timeout time.Duration, base string) (candidate, bool) {
	if !toolrunner.Available("pdfsizeopt") {
		return candidate{}, false
	}
	if s.cfg.EnableJBIG2 && !toolrunner.Available("jbig2") {
		return candidate{}, false
	}

	out := s.path("04_pdfsizeopt.pdf")
	args := []string{}
	method := models.MethodPdfsizeopt
	if s.cfg.EnableJBIG2 {
		args = append(args, "--use-image-optimizer=jbig2")
		method = models.MethodPdfsizeoptJbig2
	}
	args = append(args, base, out)
	res := s.runner.Run(ctx, timeout, nil, "pdfsizeopt", args...)
	s.record("heavy:pdfsizeopt", res)
	if !res.OK {
		return candidate{}, false
	}
	return candidate{path: out, method: method}, true
}

// ghostscriptLane probes a small page range to extrapolate full-run
// cost, skipping the full run when it would not fit inside timeout.
func (s *stageRunner) ghostscriptLane(ctx context.Context, timeout time.Duration, pages int, base string) (candidate, bool) {
	probePages := s.cfg.TimeoutProbePages
	if probePages > pages {
		probePages = pages
	}
	if probePages < 1 {
		probePages = 1
	}

	probeOut := s.path("05_gs_probe.pdf")
	pTimeout := probeTimeout(s.cfg, timeout)
	preset := ghostscriptPreset(s.cfg)

	probeArgs := append([]string{
		"-dFirstPage=1",
		fmt.Sprintf("-dLastPage=%d", probePages),
	}, s.ghostscriptArgs(preset, probeOut, base)...)

	start := time.Now()
	res := s.runner.Run(ctx, pTimeout, nil, "gs", probeArgs...)
	probeElapsed := time.Since(start)
	s.record("heavy:ghostscript_probe", res)
	if !res.OK {
		return candidate{}, false
	}

	estimated := (probeElapsed.Seconds() / float64(probePages)) * float64(pages)
	if estimated > timeout.Seconds() {
		s.report.warn("ghostscript full run skipped: estimated " +
			strconv.FormatFloat(estimated, 'f', 1, 64) + "s exceeds timeout")
		return candidate{}, false
	}

	fullOut := s.path("05_gs_full.pdf")
	res = s.runner.Run(ctx, timeout, nil, "gs", s.ghostscriptArgs(preset, fullOut, base)...)
	s.record("heavy:ghostscript_full", res)
	if !res.OK {
		retryArgs := append([]string{"-dNEWPDF=false"}, s.ghostscriptArgs(preset, fullOut, base)...)
		res = s.runner.Run(ctx, timeout, nil, "gs", retryArgs...)
		s.record("heavy:ghostscript_full_retry", res)
		if !res.OK {
			return candidate{}, false
		}
	}
	return candidate{path: fullOut, method: models.MethodGhostscript}, true
}

// determinismPass re-emits outputPath deterministically; zopfli
// controls whether QPDF_ZOPFLI=enabled is set in its environment.
func (s *stageRunner) determinismPass(ctx context.Context, timeout time.Duration, outputPath string, zopfli bool) (string, bool) {
	dest := s.path("99_deterministic.pdf")
	var env []string
	stepName := "determinism"
	if zopfli {
		env = []string{"QPDF_ZOPFLI=enabled"}
		stepName = "zopfli"
		dest = s.path("99_zopfli.pdf")
	}
	res := s.runner.Run(ctx, timeout, env, "qpdf",
		"--object-streams=generate", "--compress-streams=y", "--recompress-flate",
		"--compression-level=9", "--deterministic-id", outputPath, dest)
	s.record(stepName, res)
	if !res.OK {
		return "", false
	}
	return dest, true
}

// cleanup removes every file under dir except keep.
func cleanup(dir string, keep map[string]bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		full := filepath.Join(dir, e.Name())
		if keep[full] {
			continue
		}
		_ = os.Remove(full)
	}
}
