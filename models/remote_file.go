package models

// FileState is the processing state the inference service reports for an uploaded file.
type FileState string

const (
	FileStateUnspecified FileState = "STATE_UNSPECIFIED"
	FileStateProcessing  FileState = "PROCESSING"
	FileStateActive      FileState = "ACTIVE"
	FileStateFailed      FileState = "FAILED"
)

// RemoteFile is a handle to a file held by the inference service.
type RemoteFile struct {
	Name        string    `json:"name"`
	URI         string    `json:"uri"`
	DisplayName string    `json:"display_name"`
	MIMEType    string    `json:"mime_type"`
	State       FileState `json:"state"`
}

func (f *RemoteFile) IsProcessing() bool { return f.State == FileStateProcessing }
func (f *RemoteFile) IsActive() bool     { return f.State == FileStateActive }
