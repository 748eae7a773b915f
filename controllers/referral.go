package controllers

import (
	"net/http"

	"referral-tracking-api/services"

	"github.com/gin-gonic/gin"
)

type ReferralController struct {
	workflow *services.ReferralWorkflow
}

func NewReferralController(workflow *services.ReferralWorkflow) *ReferralController {
	return &ReferralController{workflow: workflow}
}

type SubmitReferralRequest struct {
	EmpID              string   `json:"emp_id"`
	CandidateName      string   `json:"candidate_name"`
	CandidateType      string   `json:"candidate_type"`
	ReferralReasonType string   `json:"referral_reason_type"`
	SBUEmails          []string `json:"sbu_emails"`
	CVURL              string   `json:"cv_url"`
	AdditionalComment  string   `json:"additional_comment"`
}

type UpdateReferralRequest struct {
	EmpID              string  `json:"emp_id"`
	CandidateName      *string `json:"candidate_name"`
	CandidateType      *string `json:"candidate_type"`
	ReferralReasonType *string `json:"referral_reason_type"`
	AdditionalComment  *string `json:"additional_comment"`
	CVURL              string  `json:"cv_url"`
}

// Submit handles POST /referrals
func (rc *ReferralController) Submit(c *gin.Context) {
	var req SubmitReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	referral, err := rc.workflow.Submit(c.Request.Context(), services.SubmitReferralInput{
		EmpID:              callerEmpID(c, req.EmpID),
		CandidateName:      req.CandidateName,
		CandidateType:      req.CandidateType,
		ReferralReasonType: req.ReferralReasonType,
		SBUEmails:          req.SBUEmails,
		CVURL:              req.CVURL,
		AdditionalComment:  req.AdditionalComment,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Referral submitted successfully.",
		"id":      referral.ID,
	})
}

// Mine handles GET /referrals/my?emp_id=
func (rc *ReferralController) Mine(c *gin.Context) {
	views, err := rc.workflow.ListByReferrer(c.Request.Context(), callerEmpID(c, c.Query("emp_id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// Update handles PUT /referrals/:id
func (rc *ReferralController) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, err := rc.workflow.Update(c.Request.Context(), id, callerEmpID(c, req.EmpID), services.UpdateReferralInput{
		CandidateName:      req.CandidateName,
		CandidateType:      req.CandidateType,
		ReferralReasonType: req.ReferralReasonType,
		AdditionalComment:  req.AdditionalComment,
		CVURL:              req.CVURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Referral updated successfully."})
}

// Delete handles DELETE /referrals/:id?emp_id=
func (rc *ReferralController) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := rc.workflow.Delete(c.Request.Context(), id, callerEmpID(c, c.Query("emp_id"))); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Referral deleted successfully."})
}
