package models

// SummaryResponse is the body returned by a successful upload.
type SummaryResponse struct {
	Summary string `json:"summary"`
	ID      string `json:"id,omitempty"`
}

// JobResponse is the body returned by the summary lookup endpoint.
type JobResponse struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Status    Status `json:"status"`
	Summary   string `json:"summary,omitempty"`
	ModelName string `json:"model_name,omitempty"`
	Error     string `json:"error,omitempty"`
}

func NewJobResponse(j *Job) *JobResponse {
	return &JobResponse{
		ID:        j.ID,
		Filename:  j.Filename,
		Status:    j.Status,
		Summary:   j.Summary,
		ModelName: j.ModelName,
		Error:     j.Error,
	}
}
