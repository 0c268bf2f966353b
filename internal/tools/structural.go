package tools

import (
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"zenpdf-worker/internal/pkg/workererr"
)

// Merge concatenates inputs in order into out.
func (o *Ops) Merge(inputs []string, out string) error {
	if len(inputs) == 0 {
		return workererr.User("merge requires at least one input")
	}
	return api.MergeCreateFile(inputs, out, false, pdfcpuConf)
}

// Repair re-emits in, fixing minor structural issues pdfcpu can
// recover from.
func (o *Ops) Repair(in, out string) error {
	return api.OptimizeFile(in, out, pdfcpuConf)
}

// Rotate rotates the selected pages (all pages when selection is
// empty) by angle degrees.
func (o *Ops) Rotate(in, out string, angle int, selection []string) error {
	return api.RotateFile(in, out, angle, selection, pdfcpuConf)
}

// RemovePages deletes the selected pages. An empty selection is
// defined as the identity operation by the caller before this is
// invoked.
func (o *Ops) RemovePages(in, out string, selection []string) error {
	return api.RemovePagesFile(in, out, selection, pdfcpuConf)
}

// ReorderPages rewrites the document keeping only order's pages, in
// the given order. An empty order is the identity operation.
func (o *Ops) ReorderPages(in, out string, order []string) error {
	return api.CollectFile(in, out, order, pdfcpuConf)
}

// Split extracts each range in ranges into its own file under outDir,
// returning the generated file paths in order.
func (o *Ops) Split(in, outDir string, ranges [][]string) ([]string, error) {
	var paths []string
	for i, selection := range ranges {
		outPath := outDir + "/part" + strconv.Itoa(i+1) + ".pdf"
		if err := api.CollectFile(in, outPath, selection, pdfcpuConf); err != nil {
			return nil, err
		}
		paths = append(paths, outPath)
	}
	return paths, nil
}

// Unlock decrypts in with password, failing user-error on a wrong
// password.
func (o *Ops) Unlock(in, out, password string) error {
	conf := model.NewDefaultConfiguration()
	conf.UserPW = password
	conf.OwnerPW = password
	if err := api.DecryptFile(in, out, conf); err != nil {
		return workererr.Userf("incorrect password: %v", err)
	}
	return nil
}

// Protect encrypts in with password, failing user-error if in is
// already encrypted.
func (o *Ops) Protect(in, out, password string) error {
	conf := model.NewDefaultConfiguration()
	conf.UserPW = password
	conf.OwnerPW = password
	if err := api.EncryptFile(in, out, conf); err != nil {
		return workererr.Userf("could not encrypt, document may already be protected: %v", err)
	}
	return nil
}

// ImageToPDF imports images as one page per image.
func (o *Ops) ImageToPDF(images []string, out string) error {
	if len(images) == 0 {
		return workererr.User("image-to-pdf requires at least one image")
	}
	return api.ImportImagesFile(images, out, nil, pdfcpuConf)
}
