package controllers

import (
	"net/http"

	"referral-tracking-api/services"

	"github.com/gin-gonic/gin"
)

type ReviewController struct {
	workflow *services.ReferralWorkflow
}

func NewReviewController(workflow *services.ReferralWorkflow) *ReviewController {
	return &ReviewController{workflow: workflow}
}

type ReviewRequest struct {
	EmpID    string `json:"emp_id"`
	Decision string `json:"decision"`
	Comment  string `json:"comment"`
}

// List handles GET /reviews?emp_id=
func (rc *ReviewController) List(c *gin.Context) {
	views, err := rc.workflow.CVsForReview(c.Request.Context(), callerEmpID(c, c.Query("emp_id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// Submit handles POST /reviews/:id/submit
func (rc *ReviewController) Submit(c *gin.Context) {
	in, ok := rc.bind(c)
	if !ok {
		return
	}
	if err := rc.workflow.SubmitReview(c.Request.Context(), in); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review submitted."})
}

// Update handles PUT /reviews/:id/update
func (rc *ReviewController) Update(c *gin.Context) {
	in, ok := rc.bind(c)
	if !ok {
		return
	}
	if err := rc.workflow.UpdateReview(c.Request.Context(), in); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review and referral updated successfully."})
}

func (rc *ReviewController) bind(c *gin.Context) (services.ReviewInput, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return services.ReviewInput{}, false
	}
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return services.ReviewInput{}, false
	}
	return services.ReviewInput{
		ReferralID: id,
		EmpID:      callerEmpID(c, req.EmpID),
		Decision:   req.Decision,
		Comment:    req.Comment,
	}, true
}
