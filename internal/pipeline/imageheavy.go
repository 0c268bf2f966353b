package pipeline

import "zenpdf-worker/internal/pkg/pdf"

const imageHeavySamplePages = 10

// classifyImageHeavy samples the document and decides whether it
// warrants the early Ghostscript branch: a document is image-heavy
// when it has at least as many images as pages, or when it is both
// sparse in text and meaningfully image-bearing.
func classifyImageHeavy(path string, pages int) (ImageMetrics, error) {
	imagesPerPage, textPerPage, err := pdf.ImageDensity(path, imageHeavySamplePages)
	if err != nil {
		return ImageMetrics{}, err
	}

	totalImages := imagesPerPage * float64(min(pages, imageHeavySamplePages))
	heavy := totalImages >= float64(pages) || (textPerPage < 500 && imagesPerPage > 0.5)

	return ImageMetrics{
		ImagesPerPage:    imagesPerPage,
		TextCharsPerPage: textPerPage,
		ImageHeavy:       heavy,
	}, nil
}
