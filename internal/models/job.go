// Package models holds the data types shared across the worker: the
// job descriptor leased from the queue, compression candidates, and
// the step telemetry appended while a job runs.
package models

import "time"

// Tool enumerates the PDF operations the queue can dispatch.
type Tool string

const (
	ToolMerge          Tool = "merge"
	ToolSplit          Tool = "split"
	ToolCompress       Tool = "compress"
	ToolRepair         Tool = "repair"
	ToolRotate         Tool = "rotate"
	ToolRemovePages    Tool = "remove-pages"
	ToolReorderPages   Tool = "reorder-pages"
	ToolWatermark      Tool = "watermark"
	ToolPageNumbers    Tool = "page-numbers"
	ToolCrop           Tool = "crop"
	ToolRedact         Tool = "redact"
	ToolHighlight      Tool = "highlight"
	ToolCompare        Tool = "compare"
	ToolUnlock         Tool = "unlock"
	ToolProtect        Tool = "protect"
	ToolImageToPDF     Tool = "image-to-pdf"
	ToolPDFToJPG       Tool = "pdf-to-jpg"
	ToolWebToPDF       Tool = "web-to-pdf"
	ToolOfficeToPDF    Tool = "office-to-pdf"
	ToolPDFA           Tool = "pdfa"
	ToolPDFToWord      Tool = "pdf-to-word"
	ToolPDFToWordOCR   Tool = "pdf-to-word-ocr"
	ToolPDFToText      Tool = "pdf-to-text"
	ToolPDFToExcel     Tool = "pdf-to-excel"
	ToolPDFToExcelOCR  Tool = "pdf-to-excel-ocr"
)

// InputRef is one entry of a job's inputs array, as leased from the queue.
type InputRef struct {
	StorageID string `json:"storageId"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"sizeBytes"`
}

// Job is the leased snapshot of a job descriptor.
type Job struct {
	ID     string                 `json:"_id"`
	Tool   Tool                   `json:"tool"`
	Inputs []InputRef             `json:"inputs"`
	Config map[string]interface{} `json:"config"`
}

// OutputRef describes one uploaded output, reported back on completeJob.
type OutputRef struct {
	StorageID string `json:"storageId"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"sizeBytes"`
}

// Identity is the worker's credentials, sent on every RPC.
type Identity struct {
	WorkerID    string
	WorkerToken string
}

// CandidateMethod labels which pipeline stage produced a compression candidate.
type CandidateMethod string

const (
	MethodOriginal           CandidateMethod = "original"
	MethodMutool             CandidateMethod = "mutool"
	MethodQpdf               CandidateMethod = "qpdf"
	MethodPypdf              CandidateMethod = "pypdf"
	MethodQpdfOptimizeImages CandidateMethod = "qpdf_optimize_images"
	MethodPdfsizeopt         CandidateMethod = "pdfsizeopt"
	MethodPdfsizeoptJbig2    CandidateMethod = "pdfsizeopt_jbig2"
	MethodGhostscript        CandidateMethod = "ghostscript"
	MethodQpdfAfterGs        CandidateMethod = "qpdf_after_gs"
	MethodPassthrough        CandidateMethod = "passthrough"
)

// Candidate is an intermediate PDF produced by a pipeline stage, validated
// before entering the selection set.
type Candidate struct {
	Path   string
	Method CandidateMethod
	Label  string
	Size   int64
}

// StepRecord is one append-only entry of pipeline (or job) telemetry.
type StepRecord struct {
	Name      string `json:"name"`
	OK        bool   `json:"ok"`
	ElapsedMs int64  `json:"elapsedMs"`
	Notes     string `json:"notes,omitempty"`
}

// stepNotesLimit bounds StepRecord.Notes length to keep step history
// compact regardless of how verbose a tool's diagnostic output gets.
const stepNotesLimit = 300

// NewStep builds a StepRecord, truncating notes to the fixed limit.
func NewStep(name string, ok bool, elapsed time.Duration, notes string) StepRecord {
	if len(notes) > stepNotesLimit {
		notes = notes[:stepNotesLimit]
	}
	return StepRecord{Name: name, OK: ok, ElapsedMs: elapsed.Milliseconds(), Notes: notes}
}
