package controllers

import (
	"net/http"

	"referral-tracking-api/services"

	"github.com/gin-gonic/gin"
)

type HREvaluationController struct {
	workflow *services.ReferralWorkflow
}

func NewHREvaluationController(workflow *services.ReferralWorkflow) *HREvaluationController {
	return &HREvaluationController{workflow: workflow}
}

type EvaluationRequest struct {
	ReferralID uint   `json:"referral_id"`
	EmpID      string `json:"emp_id"`
	Stage      string `json:"stage"`
	Status     string `json:"status"`
	Comment    string `json:"comment"`
}

// List handles GET /hr-evaluations
func (hc *HREvaluationController) List(c *gin.Context) {
	views, err := hc.workflow.ListForHR(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// Submit handles POST /hr-evaluations
func (hc *HREvaluationController) Submit(c *gin.Context) {
	in, ok := hc.bind(c)
	if !ok {
		return
	}
	if err := hc.workflow.SubmitEvaluation(c.Request.Context(), in); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Evaluation submitted successfully"})
}

// Update handles PUT /hr-evaluations
func (hc *HREvaluationController) Update(c *gin.Context) {
	in, ok := hc.bind(c)
	if !ok {
		return
	}
	if err := hc.workflow.UpdateEvaluation(c.Request.Context(), in); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Evaluation updated"})
}

func (hc *HREvaluationController) bind(c *gin.Context) (services.EvaluationInput, bool) {
	var req EvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return services.EvaluationInput{}, false
	}
	return services.EvaluationInput{
		ReferralID: req.ReferralID,
		EmpID:      callerEmpID(c, req.EmpID),
		Stage:      req.Stage,
		Status:     req.Status,
		Comment:    req.Comment,
	}, true
}
