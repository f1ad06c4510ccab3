package validation

import (
	"mime/multipart"
	"path/filepath"

	"github.com/nijaru/video-summarizer/errors"
	"github.com/nijaru/video-summarizer/storage"
)

const (
	MsgNoFilePart      = "No file part"
	MsgNoSelectedFile  = "No selected file"
	MsgEmptyFile       = "Empty file"
	MsgFileTooLarge    = "File too large"
	MsgUnsupportedType = "Unsupported file type"
)

// ValidateFilename rejects an upload whose client filename is empty, which is what
// browsers send when no file was chosen.
func ValidateFilename(filename string) error {
	if filename == "" {
		return errors.InvalidInput("ValidateFilename", nil, MsgNoSelectedFile)
	}
	return nil
}

// ValidateUpload checks the size and extension of an uploaded file. maxBytes <= 0
// disables the size limit.
func ValidateUpload(header *multipart.FileHeader, maxBytes int64) error {
	if err := ValidateFilename(header.Filename); err != nil {
		return err
	}

	if header.Size == 0 {
		return errors.InvalidInput("ValidateUpload", nil, MsgEmptyFile)
	}

	if maxBytes > 0 && header.Size > maxBytes {
		return errors.TooLarge("ValidateUpload", nil, MsgFileTooLarge)
	}

	if !storage.IsVideoExtension(filepath.Ext(header.Filename)) {
		return errors.InvalidInput("ValidateUpload", nil, MsgUnsupportedType)
	}

	return nil
}
