package admin

// UpdateAltRequest for PATCH /admin/media/{key}
type UpdateAltRequest struct {
	Alt *string `json:"alt" validate:"required,max=500"`
}

// UploadResponse for POST /admin/uploads
type UploadResponse struct {
	*UploadReport
	Events []Event `json:"events"`
}

// DeleteResponse for DELETE /admin/media/{key}
type DeleteResponse struct {
	Key     string `json:"key"`
	Deleted bool   `json:"deleted"`
}
