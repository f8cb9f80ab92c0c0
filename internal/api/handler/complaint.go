package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"smartpothole/backend/internal/complaint"
)

const maxUploadBytes = 10 << 20

var errUploadTooLarge = errors.New("uploaded file is too large")

// CreateComplaint accepts a citizen's multipart submission.
func (h *Handler) CreateComplaint(c *gin.Context) {
	sub := complaint.Submission{
		FullName:            c.PostForm("full_name"),
		Email:               c.PostForm("email"),
		Mobile:              c.PostForm("mobile"),
		Latitude:            c.PostForm("latitude"),
		Longitude:           c.PostForm("longitude"),
		LocationDescription: c.PostForm("location_description"),
	}

	if fh, err := c.FormFile("image"); err == nil {
		data, err := readUpload(fh)
		if err != nil {
			h.uploadError(c, err)
			return
		}
		sub.Image = data
	}

	id, err := h.Complaints.Create(c.Request.Context(), sub)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "success",
		"complaint_id": id,
	})
}

// ListComplaints returns every complaint.
func (h *Handler) ListComplaints(c *gin.Context) {
	all, err := h.Complaints.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authority_id":     actor(c),
		"total_complaints": len(all),
		"complaints":       all,
	})
}

// GetComplaint returns the detail view of one complaint.
func (h *Handler) GetComplaint(c *gin.Context) {
	detail, err := h.Complaints.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authority_id": actor(c),
		"complaint":    detail.Complaint,
		"media":        detail.Media,
		"workflow":     detail.Workflow,
	})
}

// UpdateComplaint changes status and/or assignment from form fields.
func (h *Handler) UpdateComplaint(c *gin.Context) {
	req := complaint.UpdateRequest{Actor: actor(c)}
	if v, ok := c.GetPostForm("status"); ok {
		req.Status = &v
	}
	if v, ok := c.GetPostForm("assigned_to"); ok {
		req.AssignedTo = &v
	}

	res, err := h.Complaints.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "updated",
		"complaint_id": res.ComplaintID,
		"updated_by":   res.UpdatedBy,
	})
}

// GetComplaintImage streams the stored photo as image/jpeg.
func (h *Handler) GetComplaintImage(c *gin.Context) {
	id := c.Param("id")
	path, err := h.Complaints.Image(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Content-Type", "image/jpeg")
	c.FileAttachment(path, id+".jpg")
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > maxUploadBytes {
		return nil, errUploadTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > maxUploadBytes {
		return nil, errUploadTooLarge
	}
	return data, nil
}

func (h *Handler) uploadError(c *gin.Context, err error) {
	if errors.Is(err, errUploadTooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Uploaded file is too large"})
		return
	}
	h.writeError(c, err)
}
